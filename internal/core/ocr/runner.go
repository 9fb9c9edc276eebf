package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/joseph-ayodele/offerscan/internal/common"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, logger *slog.Logger, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs poppler and tesseract binaries with os/exec. Log lines
// carry the document and navigation attempt found on ctx.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, logger *slog.Logger, args ...string) ([]byte, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(contextAttrs(ctx)...).With("cmd", name)
	log.Debug("exec.start", "cmd_line", strings.Join(append([]string{name}, args...), " "))

	var out, errb bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &errb

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		log.Error("exec.failed",
			"duration_ms", elapsed,
			"error", err,
			"stderr", Truncate(errb.String(), 8<<10),
		)
		return out.Bytes(), errb.Bytes(), err
	}
	log.Debug("exec.ok",
		"duration_ms", elapsed,
		"stdout_bytes", out.Len(),
		"stderr_bytes", errb.Len(),
	)
	return out.Bytes(), errb.Bytes(), nil
}

func contextAttrs(ctx context.Context) []any {
	var attrs []any
	if id := common.DocumentIDFromContext(ctx); id != "" {
		attrs = append(attrs, "document_id", id)
	}
	if n := common.AttemptFromContext(ctx); n != 0 {
		attrs = append(attrs, "attempt", n)
	}
	return attrs
}

// Truncate caps s at max bytes.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
