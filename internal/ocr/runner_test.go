package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestExecRunnerLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	r := newExecRunner(logger)

	_, _, err := r.Run(context.Background(), "cardsnap-no-such-binary-xyzzy")
	if err == nil {
		t.Fatal("expected an error for a missing binary")
	}
	if !strings.Contains(buf.String(), "ocr.exec.failed") {
		t.Fatalf("failure not logged through the injected logger: %q", buf.String())
	}
}

func TestNewExecRunnerDefaultsLogger(t *testing.T) {
	r := newExecRunner(nil)
	if r.logger == nil {
		t.Fatal("nil logger must fall back to the default")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate short = %q", got)
	}
	got := truncate(strings.Repeat("x", 20), 5)
	if !strings.HasPrefix(got, "xxxxx") || !strings.HasSuffix(got, "(truncated)") {
		t.Fatalf("truncate long = %q", got)
	}
}
