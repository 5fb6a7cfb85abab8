package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs poppler and tesseract through os/exec.
// Env entries (KEY=value) are appended to the inherited environment.
type ExecRunner struct {
	Logger *slog.Logger
	Env    []string
}

const maxLoggedStderr = 8 << 10

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	start := time.Now()
	err := cmd.Run()
	attrs := []any{"cmd", name, "elapsed_ms", time.Since(start).Milliseconds()}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			attrs = append(attrs, "exit_code", exitErr.ExitCode())
		}
		attrs = append(attrs,
			"args", strings.Join(args, " "),
			"error", err,
			"stderr", truncate(stderr.String(), maxLoggedStderr),
		)
		logger.Error("ocr.exec.failed", attrs...)
		return stdout.Bytes(), stderr.Bytes(), err
	}

	logger.Debug("ocr.exec.ok", append(attrs, "stdout_bytes", stdout.Len())...)
	return stdout.Bytes(), stderr.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
