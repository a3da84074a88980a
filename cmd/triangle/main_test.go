package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunHeadless(t *testing.T) {
	var out bytes.Buffer
	code := run([]string{"-headless", "-backend", "noop", "-frames", "0"}, &out)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\n%s", code, out.String())
	}
	if strings.Contains(out.String(), "level=ERROR") {
		t.Errorf("unexpected error output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "--Shader Compilation OK") {
		t.Errorf("missing shader progress markers:\n%s", out.String())
	}
}

func TestRunUnsatisfiableFormat(t *testing.T) {
	var out bytes.Buffer
	code := run([]string{"-headless", "-backend", "noop", "-color-bits", "64"}, &out)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if n := strings.Count(out.String(), "level=ERROR"); n != 1 {
		t.Errorf("error lines = %d, want 1\n%s", n, out.String())
	}
}

func TestRunBadFlag(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"-no-such-flag"}, &out); code == 0 {
		t.Error("expected non-zero exit for unknown flag")
	}
}

func TestRunHeadlessSoftware(t *testing.T) {
	var out bytes.Buffer
	code := run([]string{"-headless", "-frames", "2"}, &out)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\n%s", code, out.String())
	}
	if !strings.Contains(out.String(), "rendered 800x600 offscreen") {
		t.Errorf("missing summary line:\n%s", out.String())
	}
}

func TestFramesFlagHelp(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"-h"}, &out); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(out.String(), "the close itself renders one more") {
		t.Errorf("-frames help does not describe the extra close frame:\n%s", out.String())
	}
}
