package label

import "strings"

// Label is a query pattern over uenv records: every field is optional, and
// a label with every field empty matches everything. Name is
// reinterpreted by the repository store as a full sha256 or an id prefix
// when it has that shape; System and Uarch treat "*" as a wildcard.
type Label struct {
	Name    string
	Version string
	Tag     string
	System  string
	Uarch   string
}

// Empty reports whether the label has no fields set, matching every
// record in a query.
func (l Label) Empty() bool {
	return l.Name == "" && l.Version == "" && l.Tag == "" && l.System == "" && l.Uarch == ""
}

// String renders the label in canonical name/version:tag@system%uarch
// form, omitting fields that are empty.
func (l Label) String() string {
	var b strings.Builder
	b.WriteString(l.Name)
	if l.Version != "" {
		b.WriteByte('/')
		b.WriteString(l.Version)
	}
	if l.Tag != "" {
		b.WriteByte(':')
		b.WriteString(l.Tag)
	}
	if l.System != "" {
		b.WriteByte('@')
		b.WriteString(l.System)
	}
	if l.Uarch != "" {
		b.WriteByte('%')
		b.WriteString(l.Uarch)
	}
	return b.String()
}

// NamespaceLabel is a label qualified by a registry namespace, serialized
// as "ns::label".
type NamespaceLabel struct {
	Namespace string
	Label     Label
}

func (n NamespaceLabel) String() string {
	if n.Namespace == "" {
		return n.Label.String()
	}
	return n.Namespace + "::" + n.Label.String()
}

// UenvDescription is either a filesystem path to a squashfs file or a
// label, with an optional explicit mount path.
type UenvDescription struct {
	Path  string // set when the description names a squashfs file directly
	Label *Label // set when the description is a label
	Mount string // optional explicit mount path
}

func (u UenvDescription) String() string {
	var base string
	if u.Label != nil {
		base = u.Label.String()
	} else {
		base = u.Path
	}
	if u.Mount != "" {
		return base + ":" + u.Mount
	}
	return base
}

// ViewDescriptor names a view, optionally qualified by the uenv that
// declares it ("uenv:view" vs. just "view").
type ViewDescriptor struct {
	Uenv string
	Name string
}

func (v ViewDescriptor) String() string {
	if v.Uenv == "" {
		return v.Name
	}
	return v.Uenv + ":" + v.Name
}

// MountEntry is an explicit "source:target" mount pair.
type MountEntry struct {
	Source string
	Target string
}

func (m MountEntry) String() string {
	return m.Source + ":" + m.Target
}

// RegistryEntry is the registry address grammar, minus the registry
// host: ns/system/uarch/name/version:tag.
type RegistryEntry struct {
	Namespace string
	System    string
	Uarch     string
	Name      string
	Version   string
	Tag       string
}

func (r RegistryEntry) String() string {
	return strings.Join([]string{r.Namespace, r.System, r.Uarch, r.Name, r.Version}, "/") + ":" + r.Tag
}
