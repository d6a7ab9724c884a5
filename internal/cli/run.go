package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eth-cscs/uenv/internal/signalctl"
	"github.com/eth-cscs/uenv/pkg/uenv/concretise"
)

// newRunCommand implements "run [--view=<view-list>] <uenv-list> -- <cmd>
// <args...>": concretise the uenv/view arguments against the configured
// repositories, materialise the resulting envvars, and exec the user's
// command (or $SHELL with none given) with that environment. Mounting
// the resolved squashfs images onto their mount paths is left to an
// external collaborator; this command only prepares and exports the
// environment.
func newRunCommand() *cobra.Command {
	var viewArgs string

	cmd := &cobra.Command{
		Use:   "run [--view=<view-list>] <uenv-list> -- <cmd> <args...>",
		Short: "export a uenv's environment and run a command inside it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settingsFromContext(cmd.Context())

			uenvArgs, command := splitCommand(args, cmd.ArgsLenAtDash())
			if uenvArgs == "" {
				return fmt.Errorf("no uenv specified")
			}

			repos, closeRepos, err := openAll(s)
			if err != nil {
				return err
			}
			defer closeRepos()

			guard, ctx := signalctl.New(cmd.Context())
			defer guard.Stop()

			env, err := concretise.Concretise(ctx, repos, uenvArgs, viewArgs)
			if err != nil {
				return err
			}

			scalars := env.GetEnv()
			environ := os.Environ()
			for _, sc := range scalars {
				environ = append(environ, sc.Name+"="+sc.Value)
			}

			if len(command) == 0 {
				shell := os.Getenv("SHELL")
				if shell == "" {
					shell = "/bin/sh"
				}
				command = []string{shell}
			}

			child := exec.CommandContext(ctx, command[0], command[1:]...)
			child.Env = environ
			child.Stdin = os.Stdin
			child.Stdout = os.Stdout
			child.Stderr = os.Stderr

			runErr := child.Run()
			if guard.Caught() != 0 {
				guard.Reraise()
			}

			if runErr == nil {
				return nil
			}
			var exitErr *exec.ExitError
			if errors.As(runErr, &exitErr) {
				os.Exit(exitErr.ExitCode())
			}
			return fmt.Errorf("running %s: %w", strings.Join(command, " "), runErr)
		},
	}

	cmd.Flags().StringVar(&viewArgs, "view", "", "comma-separated list of view descriptors to apply")
	return cmd
}

// splitCommand separates the uenv-list arguments from the command to
// exec at dash, the position of the "--" divider as reported by cobra
// (which removes "--" itself from args; -1 when there is none), joining
// everything before it back into one comma-separated uenv_args string
// the label parser accepts.
func splitCommand(args []string, dash int) (uenvArgs string, command []string) {
	if dash >= 0 {
		return strings.Join(args[:dash], ","), args[dash:]
	}
	return strings.Join(args, ","), nil
}
