// Package meta loads the per-image metadata file (meta/env.json in a
// store entry's content-addressed directory) that describes a uenv's
// views and the environment variable updates each view contributes.
package meta

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/eth-cscs/uenv/internal/errs"
	"github.com/eth-cscs/uenv/pkg/uenv/envvars"
)

// View is a concretised view: a name, a human description, and the
// envvar updates it contributes.
type View struct {
	Name        string
	Description string
	Env         *envvars.Set
}

// Meta is the decoded contents of a uenv's metadata file.
type Meta struct {
	Name        string
	Description string
	Mount       string
	Views       map[string]View
}

type rawUpdate struct {
	Op    string   `json:"op"`
	Value []string `json:"value"`
}

type rawEnvValues struct {
	List   map[string][]rawUpdate `json:"list"`
	Scalar map[string]string      `json:"scalar"`
}

type rawEnv struct {
	Values rawEnvValues `json:"values"`
}

type rawView struct {
	Description string `json:"description"`
	Env         rawEnv `json:"env"`
}

type rawMeta struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Mount       string             `json:"mount"`
	Views       map[string]rawView `json:"views"`
}

// Load reads and decodes a metadata file. A missing "name" defaults to
// "unnamed"; an unrecognised update "op" is treated as "set".
func Load(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewIOError(path, err)
	}

	var raw rawMeta
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing uenv metadata file %s: %w", path, err)
	}

	m := &Meta{
		Name:        raw.Name,
		Description: raw.Description,
		Mount:       raw.Mount,
		Views:       make(map[string]View, len(raw.Views)),
	}
	if m.Name == "" {
		m.Name = "unnamed"
	}

	for name, rv := range raw.Views {
		set := envvars.NewSet()

		for varName, updates := range rv.Env.Values.List {
			for _, u := range updates {
				set.UpdatePrefixPath(varName, envvars.PrefixPathUpdate{
					Op:     envvars.ParseUpdateKind(u.Op),
					Values: u.Value,
				})
			}
		}
		for varName, value := range rv.Env.Values.Scalar {
			set.UpdateScalar(varName, value)
		}

		m.Views[name] = View{Name: name, Description: rv.Description, Env: set}
	}

	return m, nil
}
