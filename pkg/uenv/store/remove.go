package store

import (
	"fmt"
	"os"

	"github.com/eth-cscs/uenv/internal/errs"
	"github.com/eth-cscs/uenv/pkg/uenv/label"
)

// Remove deletes the image(s) matching target, which may be a full
// sha256, a 16-hex id prefix, or a label string. A direct sha/id match
// removes every row sharing that sha and the whole images/<sha>
// directory. A label match removes only the matching rows; the image
// directory is removed only once no row references its sha any longer.
func (r *Repository) Remove(target string) error {
	if r.readOnly {
		return errs.NewRepositoryError("repository %s is read-only", r.path)
	}

	lbl, err := label.ParseUenvLabel(target)
	if err != nil {
		return fmt.Errorf("invalid uenv description %q: %w", target, err)
	}

	idxLock := r.indexLock()
	if err := idxLock.Lock(); err != nil {
		return errs.NewIOError(idxLock.Path(), err)
	}
	defer idxLock.Unlock()

	matches, err := r.Query(*lbl)
	if err != nil {
		return errs.NewRepositoryError("resolving %q: %v", target, err)
	}
	if len(matches) == 0 {
		return errs.NewRepositoryError("no uenv matches %q", target)
	}

	shasToCheck := map[string]bool{}
	for _, m := range matches {
		if _, err := r.db.Exec(
			`DELETE FROM records WHERE sha = ? AND name = ? AND version = ? AND tag = ? AND system = ? AND uarch = ?`,
			m.Sha, m.Name, m.Version, m.Tag, m.System, m.Uarch,
		); err != nil {
			return errs.NewRepositoryError("removing index row for %s: %v", m, err)
		}
		shasToCheck[m.Sha] = true
	}

	for sha := range shasToCheck {
		remaining, err := r.Query(label.Label{Name: sha})
		if err != nil {
			return errs.NewRepositoryError("checking remaining references to %s: %v", sha, err)
		}
		if len(remaining) == 0 {
			if err := r.removeImageDir(sha); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Repository) removeImageDir(sha string) error {
	lock := r.shaLock(sha)
	if err := lock.Lock(); err != nil {
		return errs.NewIOError(lock.Path(), err)
	}
	defer lock.Unlock()

	if err := os.RemoveAll(r.UenvPaths(sha).Store); err != nil {
		return errs.NewIOError(r.UenvPaths(sha).Store, err)
	}
	return nil
}
