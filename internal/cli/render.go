package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/eth-cscs/uenv/pkg/uenv/store"
)

// jsonRecord is the resolved --json schema: one object per row, field
// names matching the uenv record struct.
type jsonRecord struct {
	Sha256    string `json:"sha256"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Tag       string `json:"tag"`
	System    string `json:"system"`
	Uarch     string `json:"uarch"`
	Date      string `json:"date"`
	SizeBytes int64  `json:"size_bytes"`
}

// sortedRecords orders rows by (name, version, tag, system, uarch) so
// table and JSON rendering are deterministic regardless of which
// repository (or repositories) a row came from.
func sortedRecords(rows []store.Record) []store.Record {
	out := append([]store.Record(nil), rows...)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Version != b.Version {
			return a.Version < b.Version
		}
		if a.Tag != b.Tag {
			return a.Tag < b.Tag
		}
		if a.System != b.System {
			return a.System < b.System
		}
		return a.Uarch < b.Uarch
	})
	return out
}

func renderJSON(w io.Writer, rows []store.Record) error {
	out := make([]jsonRecord, 0, len(rows))
	for _, r := range sortedRecords(rows) {
		out = append(out, jsonRecord{
			Sha256: r.Sha, ID: r.ID(), Name: r.Name, Version: r.Version,
			Tag: r.Tag, System: r.System, Uarch: r.Uarch, Date: r.Date, SizeBytes: r.SizeBytes,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderTable(w io.Writer, rows []store.Record, noHeader bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if !noHeader {
		fmt.Fprintln(tw, "name\tversion\ttag\tsystem\tuarch\tdate\tsize\tid")
	}
	for _, r := range sortedRecords(rows) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Name, r.Version, r.Tag, r.System, r.Uarch, r.Date, humanSize(r.SizeBytes), r.ID())
	}
	return tw.Flush()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
