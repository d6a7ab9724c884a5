package signalctl

import (
	"context"
	"testing"
)

func TestNewContextNotInitiallyCancelled(t *testing.T) {
	g, ctx := New(context.Background())
	defer g.Stop()

	select {
	case <-ctx.Done():
		t.Fatal("context should not be cancelled before a signal arrives")
	default:
	}
	if g.Caught() != 0 {
		t.Errorf("Caught() = %d, want 0", g.Caught())
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(0); got != 0 {
		t.Errorf("ExitCode(0) = %d, want 0", got)
	}
	if got := ExitCode(2); got != 130 {
		t.Errorf("ExitCode(2) = %d, want 130", got)
	}
	if got := ExitCode(15); got != 143 {
		t.Errorf("ExitCode(15) = %d, want 143", got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	g, _ := New(context.Background())
	g.Stop()
	g.Stop()
}
