package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// stderrLogCap bounds how much engine stderr ends up in a log record.
const stderrLogCap = 8 << 10

type execRunner struct {
	logger *slog.Logger
}

func newExecRunner(logger *slog.Logger) execRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return execRunner{logger: logger}
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		r.logger.Error("ocr.exec.failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"elapsed_ms", elapsed.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), stderrLogCap),
		)
		return out.Bytes(), errb.Bytes(), err
	}

	r.logger.Debug("ocr.exec.ok",
		"cmd", name,
		"args", strings.Join(args, " "),
		"elapsed_ms", elapsed.Milliseconds(),
		"stdout_bytes", out.Len(),
		"stderr_bytes", errb.Len(),
	)
	return out.Bytes(), errb.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
