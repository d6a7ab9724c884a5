package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.UenvLocalRepos) != 0 {
		t.Errorf("expected no local repos, got %v", cfg.UenvLocalRepos)
	}
}

func TestLoadParsesRepoList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uenv.toml")
	content := `uenv_local_repos = ["/scratch/shared-repo", "/capstor/store/another-repo"]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"/scratch/shared-repo", "/capstor/store/another-repo"}
	if len(cfg.UenvLocalRepos) != len(want) {
		t.Fatalf("UenvLocalRepos = %v, want %v", cfg.UenvLocalRepos, want)
	}
	for i := range want {
		if cfg.UenvLocalRepos[i] != want[i] {
			t.Errorf("UenvLocalRepos[%d] = %q, want %q", i, cfg.UenvLocalRepos[i], want[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for a missing configuration file")
	}
}
