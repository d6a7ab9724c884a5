package store

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/eth-cscs/uenv/internal/errs"
)

// Paths locates the on-disk pieces of one content-addressed image.
type Paths struct {
	Store    string // images/<sha>
	Squashfs string // images/<sha>/store.squashfs
	Meta     string // images/<sha>/meta
}

// Repository is an open handle on a uenv image repository rooted at a
// directory holding index.db and images/.
type Repository struct {
	path     string
	db       *sql.DB
	readOnly bool
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
	sha        TEXT NOT NULL,
	name       TEXT NOT NULL,
	version    TEXT NOT NULL,
	tag        TEXT NOT NULL,
	system     TEXT NOT NULL,
	uarch      TEXT NOT NULL,
	date       TEXT NOT NULL,
	size_bytes INTEGER NOT NULL,
	UNIQUE(name, version, tag, system, uarch)
);
`

// Open opens the repository rooted at path, creating its directory and
// index schema if necessary unless readOnly. readOnly repositories (additional repos named in the configuration
// file) reject Add/Remove.
func Open(path string, readOnly bool) (*Repository, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Join(path, "images"), 0o755); err != nil {
			return nil, errs.NewIOError(path, err)
		}
	}

	dbPath := filepath.Join(path, "index.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errs.NewRepositoryError("opening index %s: %v", dbPath, err)
	}

	if !readOnly {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, errs.NewRepositoryError("initialising index schema at %s: %v", dbPath, err)
		}
	}

	return &Repository{path: path, db: db, readOnly: readOnly}, nil
}

// Close releases the index database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the repository's root directory.
func (r *Repository) Path() string {
	return r.path
}

// ReadOnly reports whether writes to this repository are rejected.
func (r *Repository) ReadOnly() bool {
	return r.readOnly
}

// UenvPaths locates the on-disk pieces of the image addressed by sha.
func (r *Repository) UenvPaths(sha string) Paths {
	store := filepath.Join(r.path, "images", sha)
	return Paths{
		Store:    store,
		Squashfs: filepath.Join(store, "store.squashfs"),
		Meta:     filepath.Join(store, "meta"),
	}
}

func (r *Repository) shaLock(sha string) *flock.Flock {
	return flock.New(r.UenvPaths(sha).Squashfs + ".lock")
}

func (r *Repository) indexLock() *flock.Flock {
	return flock.New(filepath.Join(r.path, "index.db.lock"))
}
