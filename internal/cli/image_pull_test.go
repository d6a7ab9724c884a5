package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeOrasForPull writes an oras stand-in that answers discover with one
// manifest digest and, on both the PullDigest and PullTag invocations,
// drops a meta/env.json and store.squashfs into the destination the
// command passed it. This exercises a pull end-to-end without a real
// registry.
func fakeOrasForPull(t *testing.T, digestHex string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "oras")
	script := `#!/bin/sh
case "$1" in
  discover)
    echo '{"manifests":[{"digest":"sha256:` + digestHex + `"}]}'
    ;;
  pull)
    if [ "$2" = "--concurrency" ]; then
      dest="$5"
    else
      dest="$3"
    fi
    mkdir -p "$dest/meta"
    echo '{"name":"prgenv-gnu"}' > "$dest/meta/env.json"
    printf 'payload-bytes' > "$dest/store.squashfs"
    ;;
esac
exit 0
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestImagePullEndToEnd(t *testing.T) {
	digestHex := "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"
	oras := fakeOrasForPull(t, digestHex)

	repoDir := t.TempDir()
	t.Setenv("UENV_REPO_PATH", repoDir)
	t.Setenv("UENV_ORAS_PATH", oras)
	t.Setenv("UENV_SYSTEM", "eiger")
	t.Setenv("UENV_UARCH", "gh200")

	root := NewRootCommand("test")
	root.SetArgs([]string{"image", "pull", "deploy::prgenv-gnu/24.7:v1"})
	require.NoError(t, root.Execute())

	squashfs := filepath.Join(repoDir, "images", digestHex, "store.squashfs")
	data, err := os.ReadFile(squashfs)
	require.NoError(t, err)
	require.Equal(t, "payload-bytes", string(data))

	meta := filepath.Join(repoDir, "images", digestHex, "meta", "env.json")
	_, err = os.Stat(meta)
	require.NoError(t, err)

	lsRoot := NewRootCommand("test")
	var out = t.TempDir() + "/ls.json"
	lsFile, err := os.Create(out)
	require.NoError(t, err)
	lsRoot.SetOut(lsFile)
	lsRoot.SetArgs([]string{"image", "ls", "prgenv-gnu", "--json"})
	require.NoError(t, lsRoot.Execute())
	require.NoError(t, lsFile.Close())

	listed, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(listed), `"tag": "v1"`)
}

// fakeOrasDiscoverOnly answers discover with one manifest digest but
// fails any pull invocation, so a test using it proves the command never
// attempts a download.
func fakeOrasDiscoverOnly(t *testing.T, digestHex string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "oras")
	script := `#!/bin/sh
case "$1" in
  discover)
    echo '{"manifests":[{"digest":"sha256:` + digestHex + `"}]}'
    exit 0
    ;;
  *)
    echo "unexpected oras invocation: $@" 1>&2
    exit 1
    ;;
esac
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestImagePullSkipsRedownloadForSharedSha(t *testing.T) {
	digestHex := "dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd"

	repoDir := t.TempDir()
	t.Setenv("UENV_REPO_PATH", repoDir)
	t.Setenv("UENV_SYSTEM", "eiger")
	t.Setenv("UENV_UARCH", "gh200")

	t.Setenv("UENV_ORAS_PATH", fakeOrasForPull(t, digestHex))
	first := NewRootCommand("test")
	first.SetArgs([]string{"image", "pull", "deploy::prgenv-gnu/24.7:v1"})
	require.NoError(t, first.Execute())

	squashfs := filepath.Join(repoDir, "images", digestHex, "store.squashfs")

	// A second label sharing the same sha must not re-invoke a pull: the
	// fake oras used here errors out on anything but discover.
	t.Setenv("UENV_ORAS_PATH", fakeOrasDiscoverOnly(t, digestHex))
	second := NewRootCommand("test")
	second.SetArgs([]string{"image", "pull", "deploy::prgenv-gnu/24.7:v2"})
	require.NoError(t, second.Execute(), "pulling a second label sharing the sha must not re-invoke oras pull")

	data, err := os.ReadFile(squashfs)
	require.NoError(t, err)
	require.Equal(t, "payload-bytes", string(data))
}
