// Package config loads the uenv configuration file: a small TOML table
// naming additional read-only repositories to include in listings.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/eth-cscs/uenv/internal/errs"
)

// EnvConfigPath is the environment variable naming the configuration
// file's path.
const EnvConfigPath = "UENV_CONFIGURATION_PATH"

// Config is the decoded configuration file contents.
type Config struct {
	// UenvLocalRepos is an ordered list of additional repository paths,
	// each opened read-only and folded into `image ls` output.
	UenvLocalRepos []string `toml:"uenv_local_repos"`
}

// Load reads and decodes the TOML file at path. A path of "" returns an
// empty Config rather than an error: the configuration file is optional.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errs.NewConfigError("configuration file %s: %v", path, err)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errs.NewConfigError("parsing configuration file %s: %v", path, err)
	}
	return &cfg, nil
}

// LoadFromEnvironment loads the configuration file named by
// UENV_CONFIGURATION_PATH, or returns an empty Config if that variable is
// unset.
func LoadFromEnvironment() (*Config, error) {
	return Load(os.Getenv(EnvConfigPath))
}
