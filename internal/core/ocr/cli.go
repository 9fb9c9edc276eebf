package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

// CLIConfig locates the tesseract binary.
type CLIConfig struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string
}

// CLIEngine shells out to the tesseract command line tool.
type CLIEngine struct {
	cfg    CLIConfig
	runner Runner
	logger *slog.Logger
}

func NewCLIEngine(cfg CLIConfig, runner Runner, logger *slog.Logger) *CLIEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	return &CLIEngine{cfg: cfg, runner: runner, logger: logger}
}

func (e *CLIEngine) Name() string { return "tesseract-cli" }

// Recognize writes img to a temporary PNG and runs
// tesseract <png> stdout -l <lang> --psm <n> -c tessedit_char_whitelist=<w>.
func (e *CLIEngine) Recognize(ctx context.Context, img image.Image, opts Options) (string, error) {
	if isEmpty(img) {
		return "", ErrEmptyImage
	}
	tmpDir, err := os.MkdirTemp("", "offerscan-ocr-*")
	if err != nil {
		return "", err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			e.logger.Warn("failed to remove temp dir", "path", path, "error", err)
		}
	}(tmpDir)

	in := filepath.Join(tmpDir, "region.png")
	if err := writePNG(in, img); err != nil {
		return "", fmt.Errorf("write ocr input: %w", err)
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.logger, e.args(in, opts)...)
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, Truncate(msg, 512))
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return strings.TrimSpace(txt), nil
}

func (e *CLIEngine) args(in string, opts Options) []string {
	args := []string{in, "stdout"}
	if opts.Language != "" {
		args = append(args, "-l", opts.Language)
	}
	if opts.PageSegMode > 0 {
		args = append(args, "--psm", strconv.Itoa(opts.PageSegMode))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	if opts.Whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+opts.Whitelist)
	}
	return args
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
