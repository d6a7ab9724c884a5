package store

import (
	"os"

	"github.com/eth-cscs/uenv/internal/errs"
)

// HasImage reports whether sha's content-addressed directory already
// holds a complete squashfs payload, the check a pull makes before
// re-downloading an image two labels happen to share.
func (r *Repository) HasImage(sha string) bool {
	info, err := os.Stat(r.UenvPaths(sha).Squashfs)
	return err == nil && info.Mode().IsRegular()
}

// ReservedImage is a locked, freshly (re)created image directory a pull
// downloads directly into. Release must be called on every exit path;
// Abort additionally removes the directory, for pull failure or
// cancellation cleanup.
type ReservedImage struct {
	unlock func() error
	Paths  Paths
}

// ReserveImage locks the per-sha advisory lock and clears any stale
// partial directory before a download writes into it directly (the pull
// path doesn't go through Add/copyFile; it downloads straight into the
// content-addressed layout).
func (r *Repository) ReserveImage(sha string) (*ReservedImage, error) {
	if r.readOnly {
		return nil, errs.NewRepositoryError("repository %s is read-only", r.path)
	}
	lock := r.shaLock(sha)
	if err := lock.Lock(); err != nil {
		return nil, errs.NewIOError(lock.Path(), err)
	}

	paths := r.UenvPaths(sha)
	if err := os.RemoveAll(paths.Store); err != nil {
		lock.Unlock()
		return nil, errs.NewIOError(paths.Store, err)
	}
	if err := os.MkdirAll(paths.Store, 0o755); err != nil {
		lock.Unlock()
		return nil, errs.NewIOError(paths.Store, err)
	}

	return &ReservedImage{unlock: lock.Unlock, Paths: paths}, nil
}

// Release unlocks the per-sha lock without touching the directory
// (the success path: the directory is now a complete image).
func (ri *ReservedImage) Release() {
	ri.unlock()
}

// Abort removes the partially-written directory and unlocks, for the
// failure and cancellation paths.
func (ri *ReservedImage) Abort() error {
	defer ri.unlock()
	return os.RemoveAll(ri.Paths.Store)
}

// InsertRow adds rec's index row once its image directory is complete.
// Like Add, a collision against the same sha is idempotent and a
// collision against a different one fails the unique-label invariant.
func (r *Repository) InsertRow(rec Record) error {
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

	_, err = r.db.Exec(
		`INSERT INTO records (sha, name, version, tag, system, uarch, date, size_bytes) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Sha, rec.Name, rec.Version, rec.Tag, rec.System, rec.Uarch, rec.Date, rec.SizeBytes,
	)
	if err != nil {
		return errs.NewRepositoryError("inserting index row for %s: %v", rec, err)
	}
	return nil
}

// RemoveRowOnly deletes the index row for rec without touching the image
// directory.
func (r *Repository) RemoveRowOnly(rec Record) error {
	idxLock := r.indexLock()
	if err := idxLock.Lock(); err != nil {
		return errs.NewIOError(idxLock.Path(), err)
	}
	defer idxLock.Unlock()

	_, err := r.db.Exec(
		`DELETE FROM records WHERE sha = ? AND name = ? AND version = ? AND tag = ? AND system = ? AND uarch = ?`,
		rec.Sha, rec.Name, rec.Version, rec.Tag, rec.System, rec.Uarch,
	)
	return err
}
