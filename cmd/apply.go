package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qri-io/treediff"
	"github.com/qri-io/treediff/internal/document"
)

func newApplyCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply TARGET CHANGES",
		Short: "Apply a list of changes to a document",
		Long: `apply reads a JSON list of changes, as printed by diff --format json, and
applies each of them to TARGET in order. The result is written in TARGET's
format.

Changes from diff --order-independent need --order-independent here too, which
sorts every array in TARGET by structural hash before applying them.`,
		Args: cobra.ExactArgs(2),
		PreRun: func(cmd *cobra.Command, args []string) {
			mustBind(v, "order-independent", cmd.Flags().Lookup("order-independent"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := document.Load(args[0])
			if err != nil {
				return err
			}
			changes, err := loadChanges(args[1])
			if err != nil {
				return err
			}

			if v.GetBool("order-independent") {
				treediff.SortByHash(target)
			}
			for _, c := range changes {
				treediff.ApplyChange(&target, c)
			}
			log.Debug().Int("changes", len(changes)).Str("target", args[0]).Msg("applied changes")
			return writeDocument(cmd, v, target, args[0])
		},
	}

	cmd.Flags().Bool("order-independent", false,
		"Sort TARGET's arrays by structural hash before applying")
	return cmd
}
