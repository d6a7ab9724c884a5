package subprocess

import (
	"context"
	"testing"
)

func TestRunCapturesStdout(t *testing.T) {
	res, err := Cmd{Path: "/bin/echo", Args: []string{"hello"}}.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if res.Stdout != "hello\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello\n")
	}
}

func TestRunReportsNonZeroExitWithoutError(t *testing.T) {
	res, err := Cmd{Path: "/bin/sh", Args: []string{"-c", "exit 7"}}.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", res.ExitCode)
	}
}

func TestRunMissingBinaryReturnsError(t *testing.T) {
	if _, err := (Cmd{Path: "/no/such/binary"}).Run(context.Background()); err == nil {
		t.Error("expected an error for a missing binary")
	}
}

func TestRedacted(t *testing.T) {
	got := Redacted("oras", []string{"pull", "--username", "alice", "--password", "secret", "oci://x"})
	want := "oras pull --username *** --password *** oci://x"
	if got != want {
		t.Errorf("Redacted = %q, want %q", got, want)
	}
}
