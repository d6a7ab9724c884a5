// Package cli builds the uenv command-line surface as a tree of cobra
// commands, thin wiring over the pkg/uenv/* library packages. Colour,
// verbosity and logging are carried as an explicit Settings value
// threaded through the command tree rather than as global mutable
// state.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/eth-cscs/uenv/internal/config"
	"github.com/eth-cscs/uenv/internal/logx"
)

// EnvRepoPath names the environment variable holding the default
// repository path.
const EnvRepoPath = "UENV_REPO_PATH"

// Settings is the resolved global state for one command invocation:
// the repository path, verbosity-derived logger, colour policy and
// loaded configuration file. Built once in the root command's
// PersistentPreRunE and passed down via the command's context.
type Settings struct {
	RepoPath string
	Verbose  int
	Log      *logx.Logger
	Color    *color.Color
	NoColor  bool
	Config   *config.Config
}

// newSettings resolves --repo/-v/--no-color/--color against their
// environment-variable and default fallbacks.
func newSettings(repoFlag string, verbose int, noColor, forceColor bool) (*Settings, error) {
	repoPath := repoFlag
	if repoPath == "" {
		repoPath = os.Getenv(EnvRepoPath)
	}
	if repoPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving default repository path: %w", err)
		}
		repoPath = home + "/.uenv/repo"
	}

	cfg, err := config.LoadFromEnvironment()
	if err != nil {
		return nil, err
	}

	disableColor := noColor || os.Getenv("NO_COLOR") != ""
	if forceColor {
		disableColor = false
	}
	c := color.New()
	c.EnableColor()
	if disableColor {
		c.DisableColor()
	}

	return &Settings{
		RepoPath: repoPath,
		Verbose:  verbose,
		Log:      logx.New(logx.LevelForVerbosity(verbose)),
		Color:    c,
		NoColor:  disableColor,
		Config:   cfg,
	}, nil
}

// settingsKey is an unexported type so context values set by this
// package can't collide with another package's keys.
type settingsKey struct{}

func withSettings(cmd *cobra.Command, s *Settings) {
	cmd.SetContext(contextWithSettings(cmd.Context(), s))
}
