// Package label implements the lexer and parser for the uenv label
// grammar: name/version:tag@system%uarch, namespace-qualified labels,
// view and mount descriptor lists, dates and registry addresses.
package label

import "fmt"

// Kind identifies the alphabet of tokens the lexer produces.
type Kind int

const (
	At Kind = iota
	Slash
	Integer
	Comma
	Colon
	Symbol
	Dash
	Dot
	Whitespace
	Bang
	Star
	Percent
	End
	Error
)

func (k Kind) String() string {
	switch k {
	case At:
		return "at"
	case Slash:
		return "slash"
	case Integer:
		return "integer"
	case Comma:
		return "comma"
	case Colon:
		return "colon"
	case Symbol:
		return "symbol"
	case Dash:
		return "dash"
	case Dot:
		return "dot"
	case Whitespace:
		return "whitespace"
	case Bang:
		return "bang"
	case Star:
		return "star"
	case Percent:
		return "percent"
	case End:
		return "end"
	case Error:
		return "error"
	default:
		return "?"
	}
}

// Token is a single lexed unit: its kind, the byte offset it started at in
// the source, and the spelling it matched (a slice of the source, never
// copied).
type Token struct {
	Offset  int
	Kind    Kind
	Spelling string
}

func (t Token) String() string {
	return fmt.Sprintf("offset: %d, kind: %s '%s'", t.Offset, t.Kind, t.Spelling)
}
