// Package store implements the on-disk, content-addressed repository of
// uenv images: a relational index (index.db) alongside
// images/<sha64>/{store.squashfs,meta/}, guarded by advisory file locks.
package store

import (
	"github.com/eth-cscs/uenv/pkg/uenv/label"
)

// Record is one row of the index: a uenv image identified by its
// sha256, with the label fields that resolve to it. Records are
// immutable after insertion; several rows may share the same Sha (spec
// §3).
type Record struct {
	Sha       string
	Name      string
	Version   string
	Tag       string
	System    string
	Uarch     string
	Date      string
	SizeBytes int64
}

// ID returns the 16-hex-character prefix of the sha256 used as a short
// identifier.
func (r Record) ID() string {
	if len(r.Sha) < 16 {
		return r.Sha
	}
	return r.Sha[:16]
}

func (r Record) String() string {
	return (label.Label{Name: r.Name, Version: r.Version, Tag: r.Tag, System: r.System, Uarch: r.Uarch}).String()
}

// Label renders the record's identifying fields as a label.
func (r Record) Label() label.Label {
	return label.Label{Name: r.Name, Version: r.Version, Tag: r.Tag, System: r.System, Uarch: r.Uarch}
}
