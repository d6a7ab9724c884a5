// Package concretise resolves the uenv and view arguments a user passes
// on the command line into a runnable Env: a set of images mounted at
// distinct mount keys, and an ordered list of views to apply across
// them.
package concretise

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eth-cscs/uenv/pkg/uenv/label"
	"github.com/eth-cscs/uenv/pkg/uenv/meta"
	"github.com/eth-cscs/uenv/pkg/uenv/store"
)

// ConcreteUenv is one resolved, mountable image.
type ConcreteUenv struct {
	Record    store.Record
	SqfsPath  string
	MountPath string
	Meta      *meta.Meta
}

// QualifiedView pairs a resolved view with the mount key of the uenv
// that declares it, fixing which image's squashfs contributes it.
type QualifiedView struct {
	MountKey string
	View     meta.View
}

// Env is the result of concretisation: every uenv keyed by its mount
// path, and the views to apply in the user-supplied order (later views
// may override scalars and append to prefix paths set by earlier ones).
type Env struct {
	Uenvs map[string]ConcreteUenv
	Views []QualifiedView
}

// Concretise resolves uenvArgs (a comma-separated list of label/path
// descriptions, each with an optional explicit mount) and viewArgs (a
// comma-separated list of view descriptors) against repos, searched in
// order. The first repo is expected to be the caller's primary,
// writable repository; any others are additional read-only repos named
// in configuration.
func Concretise(ctx context.Context, repos []*store.Repository, uenvArgs, viewArgs string) (*Env, error) {
	descriptions, err := label.ParseUenvArgs(uenvArgs)
	if err != nil {
		return nil, fmt.Errorf("parsing uenv argument %q: %w", uenvArgs, err)
	}
	if len(descriptions) == 0 {
		return nil, fmt.Errorf("no uenv specified")
	}

	env := &Env{Uenvs: make(map[string]ConcreteUenv, len(descriptions))}

	for _, ud := range descriptions {
		cu, err := resolveUenv(ctx, repos, ud)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", ud.String(), err)
		}

		mountKey := ud.Mount
		if mountKey == "" {
			mountKey = cu.Meta.Mount
		}
		if mountKey == "" {
			return nil, fmt.Errorf("%q has no mount point: specify one explicitly with name:mount", ud.String())
		}
		cu.MountPath = mountKey

		if _, exists := env.Uenvs[mountKey]; exists {
			return nil, fmt.Errorf("mount point %q is claimed by more than one uenv", mountKey)
		}
		env.Uenvs[mountKey] = cu
	}

	views, err := resolveViews(env, viewArgs)
	if err != nil {
		return nil, err
	}
	env.Views = views

	return env, nil
}

// resolveUenv resolves a single uenv_desc against the repository set:
// a path description is hashed and its metadata extracted directly from
// the squashfs file; a label description is queried against the index
// and must match at least one record, all of them sharing one sha.
func resolveUenv(ctx context.Context, repos []*store.Repository, ud label.UenvDescription) (ConcreteUenv, error) {
	if ud.Path != "" {
		return resolvePathUenv(ctx, ud.Path)
	}
	return resolveLabelUenv(ctx, repos, *ud.Label)
}

func resolvePathUenv(ctx context.Context, path string) (ConcreteUenv, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ConcreteUenv{}, fmt.Errorf("squashfs file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return ConcreteUenv{}, fmt.Errorf("%s is not a regular file", path)
	}

	sha, err := store.Sha256File(ctx, path)
	if err != nil {
		return ConcreteUenv{}, err
	}

	tmp, err := os.MkdirTemp("", "uenv-meta-*")
	if err != nil {
		return ConcreteUenv{}, fmt.Errorf("creating scratch directory for %s: %w", path, err)
	}
	defer os.RemoveAll(tmp)

	if err := store.ExtractMeta(ctx, path, tmp); err != nil {
		return ConcreteUenv{}, err
	}
	m, err := meta.Load(filepath.Join(tmp, "meta", "env.json"))
	if err != nil {
		return ConcreteUenv{}, err
	}

	return ConcreteUenv{
		Record:   store.Record{Sha: sha, Name: m.Name, SizeBytes: info.Size()},
		SqfsPath: path,
		Meta:     m,
	}, nil
}

func resolveLabelUenv(ctx context.Context, repos []*store.Repository, lbl label.Label) (ConcreteUenv, error) {
	var matches []store.Record
	var owner *store.Repository
	for _, repo := range repos {
		rows, err := repo.Query(lbl)
		if err != nil {
			return ConcreteUenv{}, fmt.Errorf("querying repository %s: %w", repo.Path(), err)
		}
		if len(rows) > 0 && owner == nil {
			owner = repo
		}
		matches = append(matches, rows...)
	}

	switch {
	case len(matches) == 0:
		return ConcreteUenv{}, fmt.Errorf("no uenv found matching %q", lbl.String())
	case len(matches) > 1 && !store.UniqueSha(matches):
		return ConcreteUenv{}, fmt.Errorf("%q is ambiguous: %d uenv match", lbl.String(), len(matches))
	}

	rec := matches[0]
	paths := owner.UenvPaths(rec.Sha)
	m, err := meta.Load(filepath.Join(paths.Meta, "env.json"))
	if err != nil {
		return ConcreteUenv{}, err
	}

	return ConcreteUenv{Record: rec, SqfsPath: paths.Squashfs, Meta: m}, nil
}

// resolveViews parses viewArgs and binds each descriptor to the mount
// key of the uenv that declares it. An unqualified name must resolve
// unambiguously across every mounted uenv; a qualified "uenv:view" name
// binds to the one mounted uenv whose metadata or record name is "uenv".
func resolveViews(env *Env, viewArgs string) ([]QualifiedView, error) {
	if viewArgs == "" {
		return nil, nil
	}
	descriptors, err := label.ParseViewArgs(viewArgs)
	if err != nil {
		return nil, fmt.Errorf("parsing view argument %q: %w", viewArgs, err)
	}

	out := make([]QualifiedView, 0, len(descriptors))
	for _, vd := range descriptors {
		if vd.Uenv != "" {
			var named string
			found := 0
			for mountKey, cu := range env.Uenvs {
				if cu.Meta.Name == vd.Uenv || cu.Record.Name == vd.Uenv {
					named = mountKey
					found++
				}
			}
			if found != 1 {
				return nil, fmt.Errorf("view %q names uenv %q, which is mounted %d times", vd.String(), vd.Uenv, found)
			}
			v, ok := env.Uenvs[named].Meta.Views[vd.Name]
			if !ok {
				return nil, fmt.Errorf("uenv %q has no view named %q", vd.Uenv, vd.Name)
			}
			out = append(out, QualifiedView{MountKey: named, View: v})
			continue
		}

		var owner string
		count := 0
		for mountKey, cu := range env.Uenvs {
			if _, ok := cu.Meta.Views[vd.Name]; ok {
				owner = mountKey
				count++
			}
		}
		switch count {
		case 0:
			return nil, fmt.Errorf("no mounted uenv declares a view named %q", vd.Name)
		case 1:
			out = append(out, QualifiedView{MountKey: owner, View: env.Uenvs[owner].Meta.Views[vd.Name]})
		default:
			return nil, fmt.Errorf("view %q is ambiguous: %d mounted uenv declare it, qualify with uenv:%s", vd.Name, count, vd.Name)
		}
	}
	return out, nil
}
