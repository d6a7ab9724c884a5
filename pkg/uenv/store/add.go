package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/eth-cscs/uenv/internal/errs"
	"github.com/eth-cscs/uenv/internal/subprocess"
)

// Sha256File computes the sha256 of path by shelling out to the
// sha256sum utility rather than computing it in-process.
func Sha256File(ctx context.Context, path string) (string, error) {
	res, err := subprocess.Cmd{Path: "sha256sum", Args: []string{path}}.Run(ctx)
	if err != nil {
		return "", fmt.Errorf("running sha256sum on %s: %w", path, err)
	}
	if res.ExitCode != 0 {
		return "", errs.NewIOError(path, fmt.Errorf("sha256sum exited with code %d: %s", res.ExitCode, res.Stderr))
	}
	fields := strings.Fields(res.Stdout)
	if len(fields) == 0 || len(fields[0]) != 64 {
		return "", fmt.Errorf("unexpected sha256sum output for %s: %q", path, res.Stdout)
	}
	return fields[0], nil
}

// ExtractMeta unpacks the "meta" directory out of a squashfs image into
// destination/meta, via the external unsquashfs utility. It is exported
// for the concretiser, which needs a path argument's metadata without
// necessarily adding the image to the repository.
func ExtractMeta(ctx context.Context, sqfsPath, destination string) error {
	return extractMeta(ctx, sqfsPath, destination)
}

func extractMeta(ctx context.Context, sqfsPath, destination string) error {
	res, err := subprocess.Cmd{
		Path: "unsquashfs",
		Args: []string{"-f", "-d", destination, sqfsPath, "meta"},
	}.Run(ctx)
	if err != nil {
		return fmt.Errorf("running unsquashfs on %s: %w", sqfsPath, err)
	}
	if res.ExitCode != 0 {
		return errs.NewIOError(sqfsPath, fmt.Errorf("unsquashfs exited with code %d: %s", res.ExitCode, res.Stderr))
	}
	return nil
}

// Add registers a uenv image addressed by sha, copying sqfsPath into the
// repository's content-addressed layout and extracting its metadata. The
// directory is populated in full (squashfs copy, then meta extraction)
// before the index row is inserted, so a reader never observes a row
// pointing at a partial directory. A label collision against a row
// pointing at a different sha fails the unique-label invariant; a
// collision against a row for the same sha is idempotent and skips the
// copy entirely.
func (r *Repository) Add(ctx context.Context, rec Record, sqfsPath string) error {
	if r.readOnly {
		return errs.NewRepositoryError("repository %s is read-only", r.path)
	}

	idxLock := r.indexLock()
	if err := idxLock.Lock(); err != nil {
		return errs.NewIOError(idxLock.Path(), err)
	}
	defer idxLock.Unlock()

	collides, err := r.labelCollides(rec)
	if err != nil {
		return err
	}
	if collides {
		return nil
	}

	lock := r.shaLock(rec.Sha)
	if err := lock.Lock(); err != nil {
		return errs.NewIOError(lock.Path(), err)
	}
	defer lock.Unlock()

	paths := r.UenvPaths(rec.Sha)

	if _, err := os.Stat(paths.Squashfs); err != nil {
		if st, serr := os.Stat(paths.Store); serr == nil && st.IsDir() {
			if err := os.RemoveAll(paths.Store); err != nil {
				return errs.NewIOError(paths.Store, err)
			}
		}
		if err := os.MkdirAll(paths.Store, 0o755); err != nil {
			return errs.NewIOError(paths.Store, err)
		}

		if err := copyFile(sqfsPath, paths.Squashfs); err != nil {
			os.RemoveAll(paths.Store)
			return errs.NewIOError(paths.Squashfs, err)
		}

		if err := extractMeta(ctx, sqfsPath, paths.Store); err != nil {
			os.RemoveAll(paths.Store)
			return err
		}
	}

	_, err = r.db.Exec(
		`INSERT INTO records (sha, name, version, tag, system, uarch, date, size_bytes) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Sha, rec.Name, rec.Version, rec.Tag, rec.System, rec.Uarch, rec.Date, rec.SizeBytes,
	)
	if err != nil {
		return errs.NewRepositoryError("inserting index row for %s: %v", rec, err)
	}

	return nil
}

// labelCollides reports whether rec's label already has a row: true (no
// error) when that row points at the same sha (the idempotent case),
// and an error when it points at a different one (the unique-label
// invariant). Callers must hold the index lock.
func (r *Repository) labelCollides(rec Record) (bool, error) {
	existing, err := r.Query(rec.Label())
	if err != nil {
		return false, errs.NewRepositoryError("checking existing label for %s: %v", rec, err)
	}
	for _, e := range existing {
		if e.Sha == rec.Sha {
			return true, nil
		}
		return false, errs.NewRepositoryError("label %s already refers to a different image (%s)", rec, e.ID())
	}
	return false, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
