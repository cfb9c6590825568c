package cmd

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/qri-io/treediff/internal/document"
)

var setupLog = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
	Timestamp().
	Logger()

// Execute runs the treediff command line
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds the treediff command tree. Settings come from flags,
// then TREEDIFF_* environment variables, then the config file
func NewRootCommand() *cobra.Command {
	var cfgFile string
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "treediff",
		Short: "Structural diffs for JSON & YAML documents",
		Long: `treediff compares JSON & YAML documents by structure rather than by line.
Differences are reported as a list of changes that can be stored as JSON and
later applied to, or reverted from, another document`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, cfgFile); err != nil {
				return err
			}
			setupLogging(v.GetBool("debug"))
			return nil
		},
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.treediff.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false,
		"Log debug information to stderr")
	rootCmd.PersistentFlags().Bool("color", false,
		"Colorize pretty output with ANSI escapes")
	rootCmd.PersistentFlags().StringP("output", "o", "",
		"Write output to this file instead of stdout")

	mustBind(v, "debug", rootCmd.PersistentFlags().Lookup("debug"))
	mustBind(v, "color", rootCmd.PersistentFlags().Lookup("color"))
	mustBind(v, "output", rootCmd.PersistentFlags().Lookup("output"))

	rootCmd.AddCommand(
		newDiffCommand(v),
		newApplyCommand(v),
		newRevertCommand(v),
	)
	return rootCmd
}

// initConfig reads in config file and ENV variables if set.
func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".treediff")
	}

	v.SetEnvPrefix("treediff")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// If a config file is found, read it in.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return errors.Wrap(err, "reading config")
	}
	setupLog.Debug().Msgf("Using config file: %s", v.ConfigFileUsed())
	return nil
}

func setupLogging(debug bool) {
	if debug {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
			Timestamp().
			Caller().
			Logger().
			Level(zerolog.DebugLevel)
		setupLog = setupLog.Level(zerolog.DebugLevel)
		return
	}
	// by default, we shouldn't log anything as output goes to stdout
	log.Logger = zerolog.Nop()
	setupLog = setupLog.Level(zerolog.InfoLevel)
}

func mustBind(v *viper.Viper, flagName string, flag *pflag.Flag) {
	if err := v.BindPFlag(flagName, flag); err != nil {
		setupLog.Fatal().Err(err).Msgf("Failed to bind flag %s", flagName)
	}
}

// writeDocument encodes a patched document to the output file when one is
// set, otherwise to the command's stdout in the target's format
func writeDocument(cmd *cobra.Command, v *viper.Viper, doc interface{}, targetPath string) error {
	if out := v.GetString("output"); out != "" {
		log.Debug().Str("path", out).Msg("writing document")
		return document.Write(out, doc)
	}
	return document.Encode(cmd.OutOrStdout(), doc, document.FormatOf(targetPath))
}
