package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eth-cscs/uenv/pkg/uenv/label"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	dir := t.TempDir()
	repo, err := Open(dir, false)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func insertRow(t *testing.T, r *Repository, rec Record) {
	t.Helper()
	_, err := r.db.Exec(
		`INSERT INTO records (sha, name, version, tag, system, uarch, date, size_bytes) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Sha, rec.Name, rec.Version, rec.Tag, rec.System, rec.Uarch, rec.Date, rec.SizeBytes,
	)
	require.NoError(t, err, "inserting fixture row")
}

const shaA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestQueryByLabel(t *testing.T) {
	r := openTestRepo(t)
	insertRow(t, r, Record{Sha: shaA, Name: "prgenv-gnu", Version: "24.11", Tag: "v1", System: "eiger", Uarch: "gh200", Date: "2024-11-01", SizeBytes: 1024})
	insertRow(t, r, Record{Sha: "b" + shaA[1:], Name: "cp2k", Version: "2024", Tag: "v1", System: "eiger", Uarch: "gh200", Date: "2024-11-01", SizeBytes: 2048})

	rows, err := r.Query(label.Label{Name: "prgenv-gnu"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "prgenv-gnu", rows[0].Name)

	all, err := r.Query(label.Label{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestQueryBySha(t *testing.T) {
	r := openTestRepo(t)
	insertRow(t, r, Record{Sha: shaA, Name: "prgenv-gnu", Version: "24.11", Tag: "v1", System: "eiger", Uarch: "gh200", Date: "2024-11-01", SizeBytes: 1024})

	byFullSha, err := r.Query(label.Label{Name: shaA})
	require.NoError(t, err)
	require.Len(t, byFullSha, 1)

	byID, err := r.Query(label.Label{Name: shaA[:16]})
	require.NoError(t, err)
	require.Len(t, byID, 1)
}

func TestQueryWildcardSystem(t *testing.T) {
	r := openTestRepo(t)
	insertRow(t, r, Record{Sha: shaA, Name: "prgenv-gnu", Version: "24.11", Tag: "v1", System: "eiger", Uarch: "gh200", Date: "2024-11-01", SizeBytes: 1024})

	rows, err := r.Query(label.Label{Name: "prgenv-gnu", System: "*"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestUniqueSha(t *testing.T) {
	rows := []Record{{Sha: shaA}, {Sha: shaA}}
	require.True(t, UniqueSha(rows))

	rows = append(rows, Record{Sha: "different"})
	require.False(t, UniqueSha(rows))
	require.False(t, UniqueSha(nil))
}

func TestRemoveByLabelKeepsDirUntilUnreferenced(t *testing.T) {
	r := openTestRepo(t)
	insertRow(t, r, Record{Sha: shaA, Name: "prgenv-gnu", Version: "24.11", Tag: "v1", System: "eiger", Uarch: "gh200", Date: "2024-11-01", SizeBytes: 1024})
	insertRow(t, r, Record{Sha: shaA, Name: "prgenv-gnu", Version: "24.11", Tag: "v2", System: "eiger", Uarch: "gh200", Date: "2024-11-01", SizeBytes: 1024})

	imgDir := r.UenvPaths(shaA).Store
	require.NoError(t, os.MkdirAll(imgDir, 0o755))

	require.NoError(t, r.Remove("prgenv-gnu/24.11:v1"))
	_, err := os.Stat(imgDir)
	require.NoError(t, err, "image directory should still exist while v2 references it")

	rows, err := r.Query(label.Label{Name: "prgenv-gnu"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "v2", rows[0].Tag)

	require.NoError(t, r.Remove("prgenv-gnu/24.11:v2"))
	_, err = os.Stat(imgDir)
	require.True(t, os.IsNotExist(err), "image directory should be removed once unreferenced")
}

func TestRemoveBySha(t *testing.T) {
	r := openTestRepo(t)
	insertRow(t, r, Record{Sha: shaA, Name: "prgenv-gnu", Version: "24.11", Tag: "v1", System: "eiger", Uarch: "gh200", Date: "2024-11-01", SizeBytes: 1024})

	imgDir := r.UenvPaths(shaA).Store
	require.NoError(t, os.MkdirAll(imgDir, 0o755))

	require.NoError(t, r.Remove(shaA))
	_, err := os.Stat(imgDir)
	require.True(t, os.IsNotExist(err))

	rows, err := r.Query(label.Label{})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestUenvPaths(t *testing.T) {
	r := openTestRepo(t)
	paths := r.UenvPaths(shaA)
	require.Equal(t, filepath.Join(paths.Store, "store.squashfs"), paths.Squashfs)
	require.Equal(t, filepath.Join(paths.Store, "meta"), paths.Meta)
}
