package logx

import (
	"errors"
	"log/slog"
	"testing"
)

func TestLevelForVerbosity(t *testing.T) {
	cases := []struct {
		v    int
		want slog.Level
	}{
		{0, slog.LevelWarn},
		{1, slog.LevelInfo},
		{2, slog.LevelDebug},
		{3, LevelTrace},
		{10, LevelTrace},
	}
	for _, c := range cases {
		if got := LevelForVerbosity(c.v); got != c.want {
			t.Errorf("LevelForVerbosity(%d) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestProcessPropagatesError(t *testing.T) {
	l := New(slog.LevelError)
	want := errors.New("boom")
	err := l.Process("test", func() error { return want })
	if !errors.Is(err, want) {
		t.Errorf("Process returned %v, want %v", err, want)
	}
}

func TestProcessSucceeds(t *testing.T) {
	l := New(slog.LevelError)
	ran := false
	if err := l.Process("test", func() error { ran = true; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Error("Process did not invoke the closure")
	}
}
