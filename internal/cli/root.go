package cli

import (
	"github.com/spf13/cobra"
)

var (
	repoFlag   string
	verbose    int
	noColor    bool
	forceColor bool
)

// NewRootCommand builds the "uenv" root command and its full subcommand
// tree. version is baked in at build time via -ldflags and surfaced on
// the root command.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "uenv",
		Short:         "manage and run user environments",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSettings(repoFlag, verbose, noColor, forceColor)
			if err != nil {
				return err
			}
			withSettings(cmd, s)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&repoFlag, "repo", "", "path to the uenv repository (default $UENV_REPO_PATH)")
	flags.CountVarP(&verbose, "verbose", "v", "increase logging verbosity (stackable: warn, info, debug, trace)")
	flags.BoolVar(&noColor, "no-color", false, "disable coloured output")
	flags.BoolVar(&forceColor, "color", false, "force coloured output even when not a terminal")

	root.AddCommand(newImageCommand(), newRunCommand())
	return root
}
