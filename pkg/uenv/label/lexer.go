package label

// Lexer tokenizes a label-grammar source string. It supports one-token
// lookahead (Peek) in addition to Next, and keeps yielding End tokens once
// the input is exhausted. An unrecognised byte produces an Error token and
// the lexer stops making forward progress: every subsequent call returns
// the same Error token until the caller repositions it with Reset.
type Lexer struct {
	input  string
	pos    int
	peeked *Token
	errored bool
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Input returns the full source string being lexed.
func (l *Lexer) Input() string { return l.input }

// Mark returns an opaque checkpoint of the lexer's position that can later
// be passed to Reset to backtrack. Used by the parser to implement the
// colon/mount-path tie-break, which requires looking past a token that may
// need to be un-consumed.
func (l *Lexer) Mark() int {
	if l.peeked != nil {
		return l.peeked.Offset
	}
	return l.pos
}

// Reset rewinds the lexer to a position previously returned by Mark.
func (l *Lexer) Reset(mark int) {
	l.pos = mark
	l.peeked = nil
	l.errored = false
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() Token {
	if l.peeked == nil {
		t := l.scan()
		l.peeked = &t
	}
	return *l.peeked
}

// Next returns and consumes the next token.
func (l *Lexer) Next() Token {
	t := l.Peek()
	l.peeked = nil
	return t
}

// ConsumeRaw is used by the parser to lex a `path` production, which spans
// arbitrary bytes that the ordinary token alphabet does not cover. It
// starts at the current position (discarding any cached lookahead token,
// since paths are only attempted when the caller already knows the next
// byte is '/' or '.'), consumes bytes while stop returns false, and leaves
// the lexer positioned just after the consumed span.
func (l *Lexer) ConsumeRaw(stop func(byte) bool) (text string, offset int) {
	start := l.pos
	if l.peeked != nil {
		start = l.peeked.Offset
	}
	l.peeked = nil
	l.errored = false

	end := start
	for end < len(l.input) && !stop(l.input[end]) {
		end++
	}
	l.pos = end
	return l.input[start:end], start
}

func (l *Lexer) scan() Token {
	if l.errored {
		return Token{Offset: l.pos, Kind: Error, Spelling: l.input[l.pos:min(l.pos+1, len(l.input))]}
	}
	if l.pos >= len(l.input) {
		return Token{Offset: l.pos, Kind: End}
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case isWhitespaceByte(c):
		for l.pos < len(l.input) && isWhitespaceByte(l.input[l.pos]) {
			l.pos++
		}
		return Token{Offset: start, Kind: Whitespace, Spelling: l.input[start:l.pos]}

	case isDigit(c):
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		return Token{Offset: start, Kind: Integer, Spelling: l.input[start:l.pos]}

	case isSymbolStart(c):
		for l.pos < len(l.input) && isSymbolContinue(l.input[l.pos]) {
			l.pos++
		}
		return Token{Offset: start, Kind: Symbol, Spelling: l.input[start:l.pos]}

	case c == '@':
		l.pos++
		return Token{Offset: start, Kind: At, Spelling: "@"}
	case c == '/':
		l.pos++
		return Token{Offset: start, Kind: Slash, Spelling: "/"}
	case c == ',':
		l.pos++
		return Token{Offset: start, Kind: Comma, Spelling: ","}
	case c == ':':
		l.pos++
		return Token{Offset: start, Kind: Colon, Spelling: ":"}
	case c == '-':
		l.pos++
		return Token{Offset: start, Kind: Dash, Spelling: "-"}
	case c == '.':
		l.pos++
		return Token{Offset: start, Kind: Dot, Spelling: "."}
	case c == '!':
		l.pos++
		return Token{Offset: start, Kind: Bang, Spelling: "!"}
	case c == '*':
		l.pos++
		return Token{Offset: start, Kind: Star, Spelling: "*"}
	case c == '%':
		l.pos++
		return Token{Offset: start, Kind: Percent, Spelling: "%"}
	}

	l.errored = true
	return Token{Offset: start, Kind: Error, Spelling: l.input[start : start+1]}
}

func isWhitespaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSymbolStart(c byte) bool { return isLetter(c) || c == '_' }

func isSymbolContinue(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' }

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
