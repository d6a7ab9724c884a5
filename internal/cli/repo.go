package cli

import (
	"github.com/eth-cscs/uenv/internal/errs"
	"github.com/eth-cscs/uenv/pkg/uenv/store"
)

// openPrimary opens s.RepoPath read-write, creating it if necessary.
func openPrimary(s *Settings) (*store.Repository, error) {
	repo, err := store.Open(s.RepoPath, false)
	if err != nil {
		return nil, errs.NewConfigError("opening repository %s: %v", s.RepoPath, err)
	}
	return repo, nil
}

// openAll opens the primary read-write repository plus every additional
// repository named in the configuration file, each read-only. The
// primary is always first so callers that need a writable repo can take
// repos[0].
func openAll(s *Settings) ([]*store.Repository, func(), error) {
	primary, err := openPrimary(s)
	if err != nil {
		return nil, nil, err
	}
	repos := []*store.Repository{primary}

	for _, path := range s.Config.UenvLocalRepos {
		r, err := store.Open(path, true)
		if err != nil {
			closeAll(repos)
			return nil, nil, errs.NewConfigError("opening configured repository %s: %v", path, err)
		}
		repos = append(repos, r)
	}

	return repos, func() { closeAll(repos) }, nil
}

func closeAll(repos []*store.Repository) {
	for _, r := range repos {
		r.Close()
	}
}
