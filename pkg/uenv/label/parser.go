package label

import "strings"

// Parser recognises the label grammar over a Lexer's token stream. Each
// exported Parse* function is a fresh entry point that consumes the
// entire input or returns a *ParseError.
type Parser struct {
	lex *Lexer
}

func NewParser(input string) *Parser {
	return &Parser{lex: NewLexer(input)}
}

func (p *Parser) peek() Token { return p.lex.Peek() }
func (p *Parser) next() Token { return p.lex.Next() }

// expectEnd verifies the whole input was consumed; the parser never
// accepts a prefix match.
func (p *Parser) expectEnd() error {
	if t := p.peek(); t.Kind != End {
		if t.Kind == Error {
			return errAt(t.Offset, "unrecognised character %q", t.Spelling)
		}
		return errAt(t.Offset, "unexpected trailing input %q", t.Spelling)
	}
	return nil
}

// scanName recognises the `name` production: a symbol token starting with
// a letter (leading underscore is rejected, even though the lexer's
// symbol alphabet otherwise permits it), followed by any run of
// dash/dot/integer/symbol tokens.
func (p *Parser) scanName() (string, bool) {
	first := p.peek()
	if first.Kind != Symbol || len(first.Spelling) == 0 || !isLetter(first.Spelling[0]) {
		return "", false
	}
	p.next()
	var b strings.Builder
	b.WriteString(first.Spelling)
	for {
		switch p.peek().Kind {
		case Dash, Dot, Integer, Symbol:
			b.WriteString(p.next().Spelling)
		default:
			return b.String(), true
		}
	}
}

// scanVersionLike recognises the `version`/`tag` production: an
// integer-or-symbol token followed by a run of dot/dash/integer/symbol
// tokens.
func (p *Parser) scanVersionLike() (string, bool) {
	first := p.peek()
	if first.Kind != Integer && first.Kind != Symbol {
		return "", false
	}
	p.next()
	var b strings.Builder
	b.WriteString(first.Spelling)
	for {
		switch p.peek().Kind {
		case Dot, Dash, Integer, Symbol:
			b.WriteString(p.next().Spelling)
		default:
			return b.String(), true
		}
	}
}

// scanSystemOrUarch recognises `system`/`uarch`: name | '*'.
func (p *Parser) scanSystemOrUarch() (string, error) {
	if p.peek().Kind == Star {
		p.next()
		return "*", nil
	}
	name, ok := p.scanName()
	if !ok {
		return "", errAt(p.peek().Offset, "expected a name or '*'")
	}
	return name, nil
}

// parseLabel recognises the `label` production in full, applying the
// colon/mount-path tie-break: a colon encountered before any version has
// been parsed only introduces a tag if it is NOT immediately followed by
// a path marker ('/' or '.'); otherwise the colon is left unconsumed for
// an enclosing uenv_desc to use as its mount separator.
func (p *Parser) parseLabel() (*Label, error) {
	lbl := &Label{}

	if name, ok := p.scanName(); ok {
		lbl.Name = name
	} else if p.peek().Kind == Integer {
		// A digit-led 16- or 64-hex id/sha is accepted as the name.
		mark := p.lex.Mark()
		var b strings.Builder
		for k := p.peek().Kind; k == Integer || k == Symbol; k = p.peek().Kind {
			b.WriteString(p.next().Spelling)
		}
		s := b.String()
		hex := len(s) == 16 || len(s) == 64
		for i := 0; hex && i < len(s); i++ {
			hex = isDigit(s[i]) || (s[i] >= 'a' && s[i] <= 'f')
		}
		if hex {
			lbl.Name = s
		} else {
			p.lex.Reset(mark)
		}
	}

	if p.peek().Kind == Slash {
		p.next()
		ver, ok := p.scanVersionLike()
		if !ok {
			return nil, errAt(p.peek().Offset, "expected a version after '/'")
		}
		lbl.Version = ver
	}

	if p.peek().Kind == Colon {
		mark := p.lex.Mark()
		p.next()

		tieBreak := false
		if lbl.Version == "" {
			if nxt := p.peek().Kind; nxt == Slash || nxt == Dot {
				tieBreak = true
			}
		}

		if tieBreak {
			p.lex.Reset(mark)
		} else {
			tag, ok := p.scanVersionLike()
			if !ok {
				return nil, errAt(p.peek().Offset, "expected a tag after ':'")
			}
			lbl.Tag = tag
		}
	}

	if p.peek().Kind == At {
		p.next()
		sys, err := p.scanSystemOrUarch()
		if err != nil {
			return nil, err
		}
		lbl.System = sys
	}

	if p.peek().Kind == Percent {
		p.next()
		ua, err := p.scanSystemOrUarch()
		if err != nil {
			return nil, err
		}
		lbl.Uarch = ua
	}

	return lbl, nil
}

// parsePath recognises the `path` production. Paths are not tokenized the
// way the rest of the grammar is: once the lexer confirms the next token
// starts with '/' or '.', the raw input is scanned up to the next comma
// or colon (or end of input).
func (p *Parser) parsePath() (string, bool) {
	switch p.peek().Kind {
	case Slash, Dot:
	default:
		return "", false
	}
	text, _ := p.lex.ConsumeRaw(func(b byte) bool { return b == ',' || b == ':' })
	return text, true
}

func (p *Parser) parseUenvDescription() (*UenvDescription, error) {
	if path, ok := p.parsePath(); ok {
		ud := &UenvDescription{Path: path}
		if err := p.parseOptionalMount(ud); err != nil {
			return nil, err
		}
		return ud, nil
	}

	lbl, err := p.parseLabel()
	if err != nil {
		return nil, err
	}
	ud := &UenvDescription{Label: lbl}
	if err := p.parseOptionalMount(ud); err != nil {
		return nil, err
	}
	return ud, nil
}

func (p *Parser) parseOptionalMount(ud *UenvDescription) error {
	if p.peek().Kind != Colon {
		return nil
	}
	p.next()
	mount, ok := p.parsePath()
	if !ok {
		return errAt(p.peek().Offset, "expected a mount path after ':'")
	}
	ud.Mount = mount
	return nil
}

func (p *Parser) parseViewDescriptor() (*ViewDescriptor, error) {
	first, ok := p.scanName()
	if !ok {
		return nil, errAt(p.peek().Offset, "expected a view name")
	}
	if p.peek().Kind == Colon {
		p.next()
		second, ok := p.scanName()
		if !ok {
			return nil, errAt(p.peek().Offset, "expected a view name after ':'")
		}
		return &ViewDescriptor{Uenv: first, Name: second}, nil
	}
	return &ViewDescriptor{Name: first}, nil
}

func (p *Parser) parseMountEntry() (*MountEntry, error) {
	src, ok := p.parsePath()
	if !ok {
		return nil, errAt(p.peek().Offset, "expected a source path")
	}
	if p.peek().Kind != Colon {
		return nil, errAt(p.peek().Offset, "expected ':' in mount entry")
	}
	p.next()
	dst, ok := p.parsePath()
	if !ok {
		return nil, errAt(p.peek().Offset, "expected a target path after ':'")
	}
	return &MountEntry{Source: src, Target: dst}, nil
}

func (p *Parser) parseRegistryEntry() (*RegistryEntry, error) {
	readSeg := func(what string) (string, error) {
		s, ok := p.scanName()
		if !ok {
			return "", errAt(p.peek().Offset, "expected %s", what)
		}
		return s, nil
	}
	expectSlash := func() error {
		if p.peek().Kind != Slash {
			return errAt(p.peek().Offset, "expected '/'")
		}
		p.next()
		return nil
	}

	ns, err := readSeg("a namespace")
	if err != nil {
		return nil, err
	}
	if err := expectSlash(); err != nil {
		return nil, err
	}
	system, err := readSeg("a system")
	if err != nil {
		return nil, err
	}
	if err := expectSlash(); err != nil {
		return nil, err
	}
	uarch, err := readSeg("a uarch")
	if err != nil {
		return nil, err
	}
	if err := expectSlash(); err != nil {
		return nil, err
	}
	name, err := readSeg("a name")
	if err != nil {
		return nil, err
	}
	if err := expectSlash(); err != nil {
		return nil, err
	}
	version, ok := p.scanVersionLike()
	if !ok {
		return nil, errAt(p.peek().Offset, "expected a version")
	}
	if p.peek().Kind != Colon {
		return nil, errAt(p.peek().Offset, "expected ':' before tag")
	}
	p.next()
	tag, ok := p.scanVersionLike()
	if !ok {
		return nil, errAt(p.peek().Offset, "expected a tag")
	}

	return &RegistryEntry{Namespace: ns, System: system, Uarch: uarch, Name: name, Version: version, Tag: tag}, nil
}

// --- exported entry points ---

// ParseName recognises a single bare `name`.
func ParseName(input string) (string, error) {
	p := NewParser(input)
	name, ok := p.scanName()
	if !ok {
		return "", errAt(0, "expected a name")
	}
	if err := p.expectEnd(); err != nil {
		return "", err
	}
	return name, nil
}

// ParsePath recognises a single `path`.
func ParsePath(input string) (string, error) {
	p := NewParser(input)
	path, ok := p.parsePath()
	if !ok {
		return "", errAt(0, "expected a path")
	}
	if err := p.expectEnd(); err != nil {
		return "", err
	}
	return path, nil
}

// ParseUenvLabel recognises a `label`.
func ParseUenvLabel(input string) (*Label, error) {
	p := NewParser(input)
	lbl, err := p.parseLabel()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return lbl, nil
}

// ParseUenvNsLabel recognises a `nslabel`: (name '::')? label.
func ParseUenvNsLabel(input string) (*NamespaceLabel, error) {
	p := NewParser(input)

	var namespace string
	mark := p.lex.Mark()
	if name, ok := p.scanName(); ok && p.peek().Kind == Colon {
		p.next()
		if p.peek().Kind == Colon {
			p.next()
			namespace = name
		} else {
			p.lex.Reset(mark)
		}
	} else {
		p.lex.Reset(mark)
	}

	lbl, err := p.parseLabel()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return &NamespaceLabel{Namespace: namespace, Label: *lbl}, nil
}

// ParseUenvDescription recognises a single `uenv_desc`.
func ParseUenvDescription(input string) (*UenvDescription, error) {
	p := NewParser(input)
	ud, err := p.parseUenvDescription()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return ud, nil
}

// ParseUenvArgs recognises a comma-separated `uenv_list`.
func ParseUenvArgs(input string) ([]UenvDescription, error) {
	p := NewParser(input)
	var out []UenvDescription
	for {
		ud, err := p.parseUenvDescription()
		if err != nil {
			return nil, err
		}
		out = append(out, *ud)
		if p.peek().Kind != Comma {
			break
		}
		p.next()
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseViewDescription recognises a single `view_desc`.
func ParseViewDescription(input string) (*ViewDescriptor, error) {
	p := NewParser(input)
	vd, err := p.parseViewDescriptor()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return vd, nil
}

// ParseViewArgs recognises a comma-separated `view_list`.
func ParseViewArgs(input string) ([]ViewDescriptor, error) {
	p := NewParser(input)
	var out []ViewDescriptor
	for {
		vd, err := p.parseViewDescriptor()
		if err != nil {
			return nil, err
		}
		out = append(out, *vd)
		if p.peek().Kind != Comma {
			break
		}
		p.next()
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseMountEntry recognises a single `mount_entry`.
func ParseMountEntry(input string) (*MountEntry, error) {
	p := NewParser(input)
	me, err := p.parseMountEntry()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return me, nil
}

// ParseMountList recognises a comma-separated `mount_list`.
func ParseMountList(input string) ([]MountEntry, error) {
	p := NewParser(input)
	var out []MountEntry
	for {
		me, err := p.parseMountEntry()
		if err != nil {
			return nil, err
		}
		out = append(out, *me)
		if p.peek().Kind != Comma {
			break
		}
		p.next()
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseRegistryEntry recognises a `registry_entry`.
func ParseRegistryEntry(input string) (*RegistryEntry, error) {
	p := NewParser(input)
	re, err := p.parseRegistryEntry()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return re, nil
}

// Strip trims leading and trailing whitespace (spaces, tabs, newlines and
// vertical whitespace), matching the lexer's Whitespace token alphabet
// rather than unicode.IsSpace.
func Strip(input string) string {
	isWS := func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\v', '\f', '\r':
			return true
		}
		return false
	}
	return strings.TrimFunc(input, isWS)
}
