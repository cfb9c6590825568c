package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qri-io/treediff"
	"github.com/qri-io/treediff/internal/document"
	"github.com/qri-io/treediff/internal/ignore"
)

func newDiffCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff LEFT RIGHT",
		Short: "Print the changes that turn LEFT into RIGHT",
		Long: `diff compares two JSON or YAML documents. The json format prints the changes
in the form apply & revert read back in.

Changes from an --order-independent diff refer to array positions after sorting
by structural hash. Pass --order-independent to apply as well to replay them.

Keys can be left out of the comparison with --ignore expressions. An expression
is evaluated for each key, skipping the key & everything under it when true:
  --ignore 'Keys("updatedAt")'
  --ignore 'Under("/metadata/annotations")'
  --ignore 'Pointer matches "^/items/[0-9]+/etag$"'`,
		Args: cobra.ExactArgs(2),
		PreRun: func(cmd *cobra.Command, args []string) {
			mustBind(v, "order-independent", cmd.Flags().Lookup("order-independent"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, v, args[0], args[1])
		},
	}

	cmd.Flags().Bool("order-independent", false,
		"Compare arrays without regard to element order")
	cmd.Flags().StringArray("ignore", nil,
		"Skip keys this expression is true for, may be repeated")
	cmd.Flags().StringP("format", "f", "pretty",
		"Output format, one of: pretty, json")
	cmd.Flags().Bool("stats", false,
		"Print a summary of the changes")

	mustBind(v, "ignore", cmd.Flags().Lookup("ignore"))
	mustBind(v, "format", cmd.Flags().Lookup("format"))
	mustBind(v, "stats", cmd.Flags().Lookup("stats"))
	return cmd
}

func runDiff(cmd *cobra.Command, v *viper.Viper, leftPath, rightPath string) error {
	left, err := document.Load(leftPath)
	if err != nil {
		return err
	}
	right, err := document.Load(rightPath)
	if err != nil {
		return err
	}

	opts, err := diffOptions(v)
	if err != nil {
		return err
	}
	stats := &treediff.Stats{}
	opts = append(opts, treediff.OptionSetStats(stats))

	changes := treediff.Diff(left, right, opts...)
	log.Debug().
		Str("left", leftPath).
		Str("right", rightPath).
		Int("changes", len(changes)).
		Msg("diff complete")

	w := cmd.OutOrStdout()
	if out := v.GetString("output"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return errors.Wrap(err, "creating output file")
		}
		defer f.Close()
		w = f
	}

	color := v.GetBool("color")
	statsOut := w
	switch format := v.GetString("format"); format {
	case "pretty":
		if err := treediff.FormatPretty(w, changes, color); err != nil {
			return errors.Wrap(err, "formatting changes")
		}
	case "json":
		if err := writeChanges(w, changes); err != nil {
			return err
		}
		// keep stdout valid json
		statsOut = cmd.ErrOrStderr()
	default:
		return errors.Errorf("unknown format %q, expected pretty or json", format)
	}

	if v.GetBool("stats") {
		fmt.Fprint(statsOut, treediff.FormatPrettyStats(stats, color))
	}
	return nil
}

func diffOptions(v *viper.Viper) ([]treediff.DiffOption, error) {
	var opts []treediff.DiffOption
	if v.GetBool("order-independent") {
		opts = append(opts, treediff.OptionOrderIndependent())
	}

	sources := v.GetStringSlice("ignore")
	if len(sources) == 0 {
		return opts, nil
	}
	exprs := make([]*ignore.Expression, 0, len(sources))
	for _, src := range sources {
		e, err := ignore.Compile(src)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("expression", src).Msg("compiled ignore expression")
		exprs = append(exprs, e)
	}
	onErr := func(err error) {
		log.Warn().Err(err).Msg("ignore expression failed")
	}
	return append(opts, treediff.OptionPrefilter(ignore.Prefilter(onErr, exprs...))), nil
}

func writeChanges(w io.Writer, changes treediff.Changes) error {
	if changes == nil {
		changes = treediff.Changes{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(changes), "encoding changes")
}

func loadChanges(path string) (treediff.Changes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	var changes treediff.Changes
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, errors.Wrapf(err, "parsing changes in %q", path)
	}
	return changes, nil
}
