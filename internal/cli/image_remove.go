package cli

import "github.com/spf13/cobra"

func newImageRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <label-or-sha>",
		Short: "remove a uenv image (or just its label row, if others still reference the image) from the repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settingsFromContext(cmd.Context())
			repo, err := openPrimary(s)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Remove(args[0]); err != nil {
				return err
			}
			s.Log.InfoF("removed %s", args[0])
			return nil
		},
	}
	return cmd
}
