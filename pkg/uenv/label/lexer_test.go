package label

import "testing"

func TestLexerBasicTokens(t *testing.T) {
	l := NewLexer("prgenv-gnu/24.11:v1@gh200%a100")
	var kinds []Kind
	for {
		tok := l.Next()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == End {
			break
		}
	}
	want := []Kind{Symbol, Dash, Symbol, Slash, Integer, Dot, Integer, Colon, Symbol, At, Symbol, Percent, Symbol, End}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(kinds), len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestLexerMarkReset(t *testing.T) {
	l := NewLexer("abc:def")
	first := l.Next()
	if first.Kind != Symbol {
		t.Fatalf("first token kind = %s, want symbol", first.Kind)
	}
	mark := l.Mark()
	colon := l.Next()
	if colon.Kind != Colon {
		t.Fatalf("second token kind = %s, want colon", colon.Kind)
	}
	l.Reset(mark)
	again := l.Next()
	if again.Kind != Colon || again.Offset != colon.Offset {
		t.Errorf("Reset did not rewind to the colon: got %+v", again)
	}
}

func TestLexerErrorSticky(t *testing.T) {
	l := NewLexer("abc#def")
	l.Next() // abc
	errTok := l.Next()
	if errTok.Kind != Error {
		t.Fatalf("expected error token, got %s", errTok.Kind)
	}
	again := l.Peek()
	if again.Kind != Error {
		t.Errorf("lexer did not stay errored: got %s", again.Kind)
	}
}

func TestConsumeRawStopsAtDelimiter(t *testing.T) {
	l := NewLexer("/scratch/data:/mnt")
	text, offset := l.ConsumeRaw(func(b byte) bool { return b == ',' || b == ':' })
	if offset != 0 {
		t.Errorf("offset = %d, want 0", offset)
	}
	if text != "/scratch/data" {
		t.Errorf("text = %q, want %q", text, "/scratch/data")
	}
	next := l.Next()
	if next.Kind != Colon {
		t.Errorf("next token = %s, want colon", next.Kind)
	}
}
