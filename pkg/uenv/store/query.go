package store

import (
	"fmt"
	"strings"

	"github.com/eth-cscs/uenv/pkg/uenv/label"
)

// isShaOrID reports whether s has the shape of a full sha256 (64 hex
// characters) or a 16-hex-character id prefix, the cases where a
// label's Name field is reinterpreted as a content address rather than a
// uenv name.
func isShaOrID(s string) bool {
	if len(s) != 64 && len(s) != 16 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// Query returns every record matching lbl. An empty label matches every
// record. "*" for System or Uarch matches every value for that field;
// leaving the field blank also matches every value (the distinction
// exists purely for label round-tripping, not for filtering).
func (r *Repository) Query(lbl label.Label) ([]Record, error) {
	var conditions []string
	var args []any

	if lbl.Name != "" && isShaOrID(lbl.Name) {
		conditions = append(conditions, "sha LIKE ?")
		args = append(args, lbl.Name+"%")
	} else {
		if lbl.Name != "" {
			conditions = append(conditions, "name = ?")
			args = append(args, lbl.Name)
		}
		if lbl.Version != "" {
			conditions = append(conditions, "version = ?")
			args = append(args, lbl.Version)
		}
		if lbl.Tag != "" {
			conditions = append(conditions, "tag = ?")
			args = append(args, lbl.Tag)
		}
		if lbl.System != "" && lbl.System != "*" {
			conditions = append(conditions, "system = ?")
			args = append(args, lbl.System)
		}
		if lbl.Uarch != "" && lbl.Uarch != "*" {
			conditions = append(conditions, "uarch = ?")
			args = append(args, lbl.Uarch)
		}
	}

	query := "SELECT sha, name, version, tag, system, uarch, date, size_bytes FROM records"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name, version, tag, system, uarch"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Sha, &rec.Name, &rec.Version, &rec.Tag, &rec.System, &rec.Uarch, &rec.Date, &rec.SizeBytes); err != nil {
			return nil, fmt.Errorf("reading index row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading index rows: %w", err)
	}
	return out, nil
}

// UniqueSha reports whether every record in rs shares the same sha256,
// and rs is non-empty — the condition the concretiser requires of a
// label's matches before resolving which image to mount (spec: "more
// than one uenv found").
func UniqueSha(rs []Record) bool {
	if len(rs) == 0 {
		return false
	}
	sha := rs[0].Sha
	for _, r := range rs[1:] {
		if r.Sha != sha {
			return false
		}
	}
	return true
}
