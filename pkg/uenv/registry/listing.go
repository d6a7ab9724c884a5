package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/eth-cscs/uenv/internal/errs"
	"github.com/eth-cscs/uenv/pkg/uenv/label"
)

// ListNamespace enumerates every record reachable under namespace on the
// registry. The `discover`/`pull`/`cp` trio only resolve a single,
// fully-qualified address; none of them enumerate a namespace, so this
// walks the registry's repository catalog via `oras repo ls` and lists
// tags per repository via `oras repo tags`, reconstructing the
// <system>/<uarch>/<name>/<version> coordinate from each repository path.
// A record's Sha is resolved with one Discover call per tag, so callers
// can match a sha/id search term the same way a local `image ls` would.
func (c *Client) ListNamespace(ctx context.Context, registryHost, namespace string, creds *Credentials) ([]Record, error) {
	repos, err := c.listRepositories(ctx, registryHost, creds)
	if err != nil {
		return nil, err
	}

	prefix := namespace + "/"
	var records []Record
	for _, repoPath := range repos {
		rest := strings.TrimPrefix(repoPath, prefix)
		if rest == repoPath {
			continue // not under this namespace
		}
		parts := strings.Split(rest, "/")
		if len(parts) != 4 {
			continue // not a <system>/<uarch>/<name>/<version> coordinate
		}
		system, uarch, name, version := parts[0], parts[1], parts[2], parts[3]

		tags, err := c.listTags(ctx, registryHost, repoPath, creds)
		if err != nil {
			return nil, err
		}

		for _, tag := range tags {
			rec := Record{Name: name, Version: version, Tag: tag, System: system, Uarch: uarch}
			digests, err := c.Discover(ctx, registryHost, namespace, rec, creds)
			if err == nil && len(digests) > 0 {
				rec.Sha = strings.TrimPrefix(digests[0], "sha256:")
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func (c *Client) listRepositories(ctx context.Context, registryHost string, creds *Credentials) ([]string, error) {
	args := append([]string{"repo", "ls", registryHost}, credArgs(creds, "")...)

	res, err := c.run(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("running oras repo ls: %w", err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("oras repo ls %s: %w", registryHost, errs.NewRegistryError(res.ExitCode, res.Stderr))
	}
	return splitLines(res.Stdout), nil
}

func (c *Client) listTags(ctx context.Context, registryHost, repoPath string, creds *Credentials) ([]string, error) {
	addr := registryHost + "/" + repoPath
	args := append([]string{"repo", "tags", addr}, credArgs(creds, "")...)

	res, err := c.run(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("running oras repo tags %s: %w", addr, err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("oras repo tags %s: %w", addr, errs.NewRegistryError(res.ExitCode, res.Stderr))
	}
	return splitLines(res.Stdout), nil
}

// Filter returns every record in records matching lbl, with the same
// semantics as the local store's Query: a blank label matches everything,
// a sha/id-shaped Name matches by sha prefix instead of by name, "*" (or
// blank) for System/Uarch matches every value.
func Filter(records []Record, lbl label.Label) []Record {
	var out []Record
	for _, rec := range records {
		if matches(rec, lbl) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec Record, lbl label.Label) bool {
	if lbl.Name != "" && isShaOrID(lbl.Name) {
		return strings.HasPrefix(rec.Sha, lbl.Name)
	}
	if lbl.Name != "" && lbl.Name != rec.Name {
		return false
	}
	if lbl.Version != "" && lbl.Version != rec.Version {
		return false
	}
	if lbl.Tag != "" && lbl.Tag != rec.Tag {
		return false
	}
	if lbl.System != "" && lbl.System != "*" && lbl.System != rec.System {
		return false
	}
	if lbl.Uarch != "" && lbl.Uarch != "*" && lbl.Uarch != rec.Uarch {
		return false
	}
	return true
}

func isShaOrID(s string) bool {
	if len(s) != 64 && len(s) != 16 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
