package cli

import "github.com/spf13/cobra"

// newImageCommand builds the "image" command group: ls, find, add,
// remove, pull.
func newImageCommand() *cobra.Command {
	imageCmd := &cobra.Command{
		Use:   "image",
		Short: "inspect and manage uenv images in the local repository",
	}

	imageCmd.AddCommand(
		newImageLsCommand(),
		newImageFindCommand(),
		newImageAddCommand(),
		newImageRemoveCommand(),
		newImagePullCommand(),
	)
	return imageCmd
}
