package meta

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleMeta = `{
  "name": "prgenv-gnu",
  "description": "GNU programming environment",
  "views": {
    "default": {
      "description": "the default view",
      "env": {
        "values": {
          "list": {
            "PATH": [{"op": "prepend", "value": ["/user-environment/env/default/bin"]}]
          },
          "scalar": {
            "CC": "gcc"
          }
        }
      }
    },
    "modules": {
      "env": {
        "values": {
          "list": {
            "MODULEPATH": [{"op": "append", "value": ["/user-environment/modules"]}]
          },
          "scalar": {}
        }
      }
    }
  }
}`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "env.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFixture(t, sampleMeta)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Name != "prgenv-gnu" {
		t.Errorf("Name = %q, want %q", m.Name, "prgenv-gnu")
	}
	if len(m.Views) != 2 {
		t.Fatalf("len(Views) = %d, want 2", len(m.Views))
	}

	def, ok := m.Views["default"]
	if !ok {
		t.Fatal("missing view \"default\"")
	}
	vals := def.Env.GetValues(func(string) (string, bool) { return "", false })
	byName := map[string]string{}
	for _, v := range vals {
		byName[v.Name] = v.Value
	}
	if byName["CC"] != "gcc" {
		t.Errorf("CC = %q, want %q", byName["CC"], "gcc")
	}
	if byName["PATH"] != "/user-environment/env/default/bin" {
		t.Errorf("PATH = %q, want %q", byName["PATH"], "/user-environment/env/default/bin")
	}
}

func TestLoadDefaultsUnnamed(t *testing.T) {
	path := writeFixture(t, `{"views": {}}`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Name != "unnamed" {
		t.Errorf("Name = %q, want %q", m.Name, "unnamed")
	}
}

func TestLoadUnknownOpTreatedAsSet(t *testing.T) {
	path := writeFixture(t, `{
		"name": "x",
		"views": {
			"default": {
				"env": {"values": {"list": {"PATH": [{"op": "bogus", "value": ["/a"]}]}, "scalar": {}}}
			}
		}
	}`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	vals := m.Views["default"].Env.GetValues(func(string) (string, bool) { return "", false })
	if len(vals) != 1 || vals[0].Value != "/a" {
		t.Errorf("GetValues = %+v, want PATH=/a (set semantics)", vals)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for a missing metadata file")
	}
}
