// Package envvars implements the scalar and prefix-path environment
// variable engine: an ordered accumulation of updates per variable name
// that folds against a base process environment when materialised.
package envvars

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
)

// UpdateKind identifies how a prefix-path update combines with the
// current value of a variable.
type UpdateKind int

const (
	Set UpdateKind = iota
	Append
	Prepend
)

func (k UpdateKind) String() string {
	switch k {
	case Set:
		return "set"
	case Append:
		return "append"
	case Prepend:
		return "prepend"
	default:
		return "unknown"
	}
}

// ParseUpdateKind maps an "op" field from view metadata to an UpdateKind.
// Any value other than "append"/"prepend" is treated as "set".
func ParseUpdateKind(op string) UpdateKind {
	switch op {
	case "append":
		return Append
	case "prepend":
		return Prepend
	default:
		return Set
	}
}

// PrefixPathUpdate is one recorded change to a colon-separated path list.
type PrefixPathUpdate struct {
	Op     UpdateKind
	Values []string
}

func (u PrefixPathUpdate) apply(in []string) []string {
	switch u.Op {
	case Append:
		return append(append([]string{}, in...), u.Values...)
	case Prepend:
		return append(append([]string{}, u.Values...), in...)
	default: // Set
		return append([]string{}, u.Values...)
	}
}

// prefixPath is the ordered sequence of updates recorded against one
// variable name.
type prefixPath struct {
	updates []PrefixPathUpdate
}

func (p *prefixPath) get(initial string) string {
	var value []string
	if initial != "" {
		value = splitPath(initial)
	}
	for _, u := range p.updates {
		value = u.apply(value)
	}
	return joinPath(simplifyPrefixPathList(value))
}

// Scalar is a single-valued environment variable assignment.
type Scalar struct {
	Name  string
	Value string
}

// Set is the accumulated collection of envvar updates for one view (or
// for a merged set of views): a variable name is either a scalar or a
// prefix-path accumulator, never both at once. Switching kinds for the
// same name evicts the prior kind and is reported via Conflicts.
type Set struct {
	scalars     map[string]Scalar
	prefixPaths map[string]*prefixPath
	// order preserves first-sight insertion order across both kinds, so
	// materialisation is deterministic rather than map-iteration order.
	order []string
	// Conflicts records every variable name for which a scalar update
	// and a prefix-path update were interleaved.
	Conflicts []string
}

// NewSet returns an empty envvar set.
func NewSet() *Set {
	return &Set{
		scalars:     map[string]Scalar{},
		prefixPaths: map[string]*prefixPath{},
	}
}

func (s *Set) remember(name string) {
	if !lo.Contains(s.order, name) {
		s.order = append(s.order, name)
	}
}

// UpdateScalar records a scalar assignment, returning true if it evicted
// a prefix-path accumulator for the same name (a conflict).
func (s *Set) UpdateScalar(name, value string) bool {
	s.remember(name)
	conflict := false
	if _, ok := s.prefixPaths[name]; ok {
		delete(s.prefixPaths, name)
		conflict = true
		s.Conflicts = append(s.Conflicts, name)
	}
	s.scalars[name] = Scalar{Name: name, Value: value}
	return conflict
}

// UpdatePrefixPath records a prefix-path update, returning true if it
// evicted a scalar assignment for the same name (a conflict).
func (s *Set) UpdatePrefixPath(name string, update PrefixPathUpdate) bool {
	s.remember(name)
	conflict := false
	if _, ok := s.scalars[name]; ok {
		delete(s.scalars, name)
		conflict = true
		s.Conflicts = append(s.Conflicts, name)
	}
	pp, ok := s.prefixPaths[name]
	if !ok {
		pp = &prefixPath{}
		s.prefixPaths[name] = pp
	}
	pp.updates = append(pp.updates, update)
	return conflict
}

// Merge folds other's updates into s, in view-application order. Used to
// combine the envvar sets of multiple concretised views.
func (s *Set) Merge(other *Set) {
	for _, name := range other.order {
		if sc, ok := other.scalars[name]; ok {
			s.UpdateScalar(name, sc.Value)
			continue
		}
		if pp, ok := other.prefixPaths[name]; ok {
			for _, u := range pp.updates {
				s.UpdatePrefixPath(name, u)
			}
		}
	}
}

// GetValues materialises every accumulated update into a final list of
// scalars, resolving prefix-path accumulators against getenv (the
// current value of the variable in the base process environment, or ""
// if unset).
func (s *Set) GetValues(getenv func(name string) (string, bool)) []Scalar {
	vars := make([]Scalar, 0, len(s.scalars)+len(s.prefixPaths))

	for _, name := range s.order {
		if sc, ok := s.scalars[name]; ok {
			vars = append(vars, sc)
			continue
		}
		if pp, ok := s.prefixPaths[name]; ok {
			initial, _ := getenv(name)
			vars = append(vars, Scalar{Name: name, Value: pp.get(initial)})
		}
	}

	return vars
}

// simplifyPrefixPathList removes empty components and duplicates from a
// path list, keeping the first occurrence of each distinct, non-empty
// entry (stable de-duplication).
func simplifyPrefixPathList(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func splitPath(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func joinPath(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += ":" + p
	}
	return out
}

// ConflictsError aggregates every kind-switch conflict recorded on the
// set into a single non-fatal error, or nil if none occurred. Callers
// typically log this rather than treat it as a failure: the subsequent
// kind still takes effect.
func (s *Set) ConflictsError() error {
	if len(s.Conflicts) == 0 {
		return nil
	}
	var result *multierror.Error
	for _, name := range s.Conflicts {
		result = multierror.Append(result, fmt.Errorf("variable %q switched between scalar and prefix-path updates", name))
	}
	return result.ErrorOrNil()
}

// String renders a Scalar as NAME=VALUE, for logging.
func (s Scalar) String() string {
	return fmt.Sprintf("%s=%s", s.Name, s.Value)
}
