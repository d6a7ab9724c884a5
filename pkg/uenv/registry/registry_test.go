package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eth-cscs/uenv/internal/logx"
	"github.com/eth-cscs/uenv/pkg/uenv/label"
)

// fakeOras writes an executable shell script standing in for the oras
// binary, so Client methods can be exercised without a real registry.
func fakeOras(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "oras")
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake oras: %v", err)
	}
	return path
}

func testClient(path string) *Client {
	return New(path, logx.New(100))
}

func TestDiscoverParsesManifestDigests(t *testing.T) {
	oras := fakeOras(t, `echo '{"manifests":[{"digest":"sha256:abc"},{"digest":"sha256:def"}]}'`)
	c := testClient(oras)

	digests, err := c.Discover(context.Background(), "jfrog.svc.cscs.ch", "build", Record{Name: "prgenv-gnu", Version: "24.11", Tag: "v1", System: "eiger", Uarch: "gh200"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"sha256:abc", "sha256:def"}, digests)
}

func TestDiscoverNonZeroExit(t *testing.T) {
	oras := fakeOras(t, `echo 'not found' 1>&2; exit 1`)
	c := testClient(oras)

	_, err := c.Discover(context.Background(), "registry", "ns", Record{Name: "x", Version: "1", Tag: "v1", System: "s", Uarch: "u"}, nil)
	require.Error(t, err)
}

func TestPullDigestPassesCredentials(t *testing.T) {
	oras := fakeOras(t, `
		if [ "$5" != "--password" ] || [ "$7" != "--username" ]; then
			echo "missing credential flags: $@" 1>&2
			exit 2
		fi
		exit 0
	`)
	c := testClient(oras)

	err := c.PullDigest(context.Background(), "registry", "ns",
		Record{Name: "prgenv-gnu", Version: "24.11", Tag: "v1", System: "eiger", Uarch: "gh200"},
		"sha256:abc", t.TempDir(),
		&Credentials{Username: "alice", Token: "secret"})
	require.NoError(t, err)
}

func TestCopyBuildsBothAddresses(t *testing.T) {
	oras := fakeOras(t, `exit 0`)
	c := testClient(oras)

	src := Record{Name: "prgenv-gnu", Version: "24.11", Tag: "v1", System: "eiger", Uarch: "gh200"}
	dst := Record{Name: "prgenv-gnu", Version: "24.11", Tag: "v1", System: "todi", Uarch: "gh200"}
	require.NoError(t, c.Copy(context.Background(), "registry", "build", src, "build", dst, nil))
}

func TestPullTagSucceedsWithoutProgress(t *testing.T) {
	oras := fakeOras(t, `mkdir -p "$5"; echo payload > "$5/store.squashfs"; exit 0`)
	c := testClient(oras)

	dest := t.TempDir()
	rec := Record{Name: "prgenv-gnu", Version: "24.11", Tag: "v1", System: "eiger", Uarch: "gh200", SizeBytes: 8}
	require.NoError(t, c.PullTag(context.Background(), "registry", "build", rec, dest, nil, false))
}

func TestListNamespaceResolvesRecordsWithSha(t *testing.T) {
	oras := fakeOras(t, `
		case "$1" in
			repo)
				case "$2" in
					ls) echo "deploy/eiger/gh200/prgenv-gnu/24.11" ;;
					tags) echo "v1" ;;
				esac
				;;
			discover)
				echo '{"manifests":[{"digest":"sha256:aaaaaaaaaaaaaaaa"}]}'
				;;
		esac
	`)
	c := testClient(oras)

	records, err := c.ListNamespace(context.Background(), "registry", "deploy", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, Record{Name: "prgenv-gnu", Version: "24.11", Tag: "v1", System: "eiger", Uarch: "gh200", Sha: "aaaaaaaaaaaaaaaa"}, records[0])
}

func TestListNamespaceSkipsRepositoriesOutsideNamespace(t *testing.T) {
	oras := fakeOras(t, `
		case "$1 $2" in
			"repo ls") echo "build/eiger/gh200/prgenv-gnu/24.11" ;;
		esac
	`)
	c := testClient(oras)

	records, err := c.ListNamespace(context.Background(), "registry", "deploy", nil)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestFilterMatchesByShaPrefix(t *testing.T) {
	records := []Record{
		{Name: "prgenv-gnu", Version: "24.11", Tag: "v1", System: "eiger", Uarch: "gh200", Sha: "510094ddb3484e305cb8118e21cbb9c94e9aff2004f0d6499763f42bdafccfb5"},
		{Name: "other", Version: "1.0", Tag: "v1", System: "eiger", Uarch: "gh200", Sha: "deadbeef"},
	}
	lbl, err := label.ParseUenvLabel("510094ddb3484e30")
	require.NoError(t, err)

	out := Filter(records, *lbl)
	require.Len(t, out, 1)
	require.Equal(t, "prgenv-gnu", out[0].Name)
}

func TestFilterMatchesByNameVersionTag(t *testing.T) {
	records := []Record{
		{Name: "prgenv-gnu", Version: "24.11", Tag: "v1", System: "eiger", Uarch: "gh200"},
		{Name: "prgenv-gnu", Version: "24.7", Tag: "v1", System: "eiger", Uarch: "gh200"},
	}
	lbl, err := label.ParseUenvLabel("prgenv-gnu/24.11")
	require.NoError(t, err)

	out := Filter(records, *lbl)
	require.Len(t, out, 1)
	require.Equal(t, "24.11", out[0].Version)
}
