package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qri-io/treediff"
	"github.com/qri-io/treediff/internal/document"
)

func newRevertCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "revert TARGET SOURCE CHANGES",
		Short: "Undo a list of changes on a document",
		Long: `revert undoes each change in CHANGES on TARGET, the document the changes were
applied to. SOURCE is the document the changes were computed from. The result
is written in TARGET's format.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := document.Load(args[0])
			if err != nil {
				return err
			}
			source, err := document.Load(args[1])
			if err != nil {
				return err
			}
			changes, err := loadChanges(args[2])
			if err != nil {
				return err
			}

			// array changes are listed from the end of the array, so undoing
			// them in the listed order never shifts an index still to come
			for _, c := range changes {
				treediff.RevertChange(&target, source, c)
			}
			log.Debug().Int("changes", len(changes)).Str("target", args[0]).Msg("reverted changes")
			return writeDocument(cmd, v, target, args[0])
		},
	}
}
