package main

import (
	"bytes"
	"strings"
	"testing"
)

func runCLI(args []string) (stdout, stderr string, code int) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestRunNoArgs(t *testing.T) {
	_, errOut, code := runCLI(nil)
	if code != 2 {
		t.Fatalf("exit code %d, want 2", code)
	}
	if !strings.Contains(errOut, "Usage:") {
		t.Fatalf("expected usage text on stderr, got %q", errOut)
	}
}

func TestRunVersion(t *testing.T) {
	out, _, code := runCLI([]string{"-v"})
	if code != 0 {
		t.Fatalf("exit code %d, want 0", code)
	}
	if strings.TrimSpace(out) != version {
		t.Fatalf("stdout=%q, want %q", out, version)
	}
}

func TestRunHelp(t *testing.T) {
	_, errOut, code := runCLI([]string{"-h"})
	if code != 0 {
		t.Fatalf("exit code %d, want 0", code)
	}
	if !strings.Contains(errOut, "xlsdump") {
		t.Fatalf("expected usage text on stderr, got %q", errOut)
	}
}

func TestRunMissingFile(t *testing.T) {
	_, errOut, code := runCLI([]string{"/nonexistent/does-not-exist.xls"})
	if code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	if !strings.Contains(errOut, "does-not-exist.xls") {
		t.Fatalf("expected error to name the file, got %q", errOut)
	}
}

func TestRunTooManyArgs(t *testing.T) {
	_, _, code := runCLI([]string{"a.xls", "b.xls"})
	if code != 2 {
		t.Fatalf("exit code %d, want 2", code)
	}
}
