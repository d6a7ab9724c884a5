package cli

import (
	"github.com/spf13/cobra"

	"github.com/eth-cscs/uenv/pkg/uenv/label"
	"github.com/eth-cscs/uenv/pkg/uenv/store"
)

func newImageLsCommand() *cobra.Command {
	var noHeader, asJSON bool

	cmd := &cobra.Command{
		Use:   "ls [label]",
		Short: "list uenv images in the local repository and configured additional repositories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settingsFromContext(cmd.Context())

			var lbl label.Label
			if len(args) == 1 {
				parsed, err := label.ParseUenvLabel(args[0])
				if err != nil {
					return err
				}
				lbl = *parsed
			}

			repos, closeFn, err := openAll(s)
			if err != nil {
				return err
			}
			defer closeFn()

			var rows []store.Record
			for _, repo := range repos {
				rs, err := repo.Query(lbl)
				if err != nil {
					return err
				}
				rows = append(rows, rs...)
			}

			if asJSON {
				return renderJSON(cmd.OutOrStdout(), rows)
			}
			return renderTable(cmd.OutOrStdout(), rows, noHeader)
		},
	}

	cmd.Flags().BoolVar(&noHeader, "no-header", false, "omit the table header")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit a JSON array instead of a table")
	return cmd
}
