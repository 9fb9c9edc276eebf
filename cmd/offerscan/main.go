package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joseph-ayodele/offerscan/internal/common"
	"github.com/joseph-ayodele/offerscan/internal/console"
	"github.com/joseph-ayodele/offerscan/internal/core/document"
	"github.com/joseph-ayodele/offerscan/internal/core/ocr"
	"github.com/joseph-ayodele/offerscan/internal/core/ocr/tesseract"
	"github.com/joseph-ayodele/offerscan/internal/export"
	"github.com/joseph-ayodele/offerscan/internal/ingest"
	"github.com/joseph-ayodele/offerscan/internal/repository"
	"github.com/joseph-ayodele/offerscan/internal/workbench"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	cfg := common.LoadConfig()

	var (
		interactive = flag.Bool("i", false, "interactive console")
		exportDir   = flag.String("export-dir", cfg.Export.Dir, "directory Internship_Data.xlsx is written to")
		editsPath   = flag.String("edits", "", "JSON file of table edits applied before export (batch mode)")
		engineName  = flag.String("engine", cfg.OCR.Engine, "OCR engine: cli or gosseract")
		scale       = flag.Float64("scale", cfg.Render.Scale, "page render scale (1.0 = 72 DPI)")
		lang        = flag.String("lang", cfg.OCR.Language, "OCR language")
		jobsDSN     = flag.String("jobs-dsn", cfg.Journal.DSN, "SQLite DSN for the extraction journal")
	)
	flag.Usage = func() {
		printError("usage: offerscan [flags] <letter.pdf>...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg.Export.Dir = *exportDir
	cfg.OCR.Engine = *engineName
	cfg.Render.Scale = *scale
	cfg.OCR.Language = *lang
	cfg.Journal.DSN = *jobsDSN
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	paths := flag.Args()
	if !*interactive && len(paths) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{DSN: cfg.Journal.DSN}, logger)
	if err != nil {
		logger.Error("failed to open journal", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)
	jobs := repository.NewExtractJobRepository(db, logger)

	runner := ocr.ExecRunner{}
	src := document.NewPDFSource(document.Config{Pdftoppm: cfg.Render.Pdftoppm}, runner, logger)
	engine := newEngine(cfg.OCR, runner, logger)
	logger.Info("ocr engine selected", "engine", engine.Name(), "lang", cfg.OCR.Language)

	wb := workbench.New(
		ingest.NewLoader(cfg.Ingest.Workers, logger),
		src,
		engine,
		export.NewService(export.DirSink{Dir: cfg.Export.Dir}, logger),
		jobs,
		workbench.Options{
			Scale:         cfg.Render.Scale,
			Language:      cfg.OCR.Language,
			RenderTimeout: cfg.Render.Timeout,
			OCRTimeout:    cfg.OCR.Timeout,
			Notifier:      console.Notices{Out: os.Stdout},
		},
		logger,
	)

	if *interactive {
		if len(paths) > 0 {
			if err := wb.Upload(ctx, paths); err != nil {
				logger.Warn("initial upload failed", "error", err)
			}
		}
		if err := console.New(wb, os.Stdin, os.Stdout, logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("console stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := runBatch(ctx, wb, paths, *editsPath, logger); err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}
}

// runBatch visits every document once, applies the edits file and exports.
func runBatch(ctx context.Context, wb *workbench.Workbench, paths []string, editsPath string, logger *slog.Logger) error {
	var edits []workbench.Edit
	if editsPath != "" {
		data, err := os.ReadFile(editsPath)
		if err != nil {
			return fmt.Errorf("read edits: %w", err)
		}
		if edits, err = workbench.ParseEdits(data); err != nil {
			return err
		}
	}

	if err := wb.Upload(ctx, paths); err != nil {
		logger.Warn("document failed", "index", 0, "error", err)
	}
	for wb.Nav().CanNext {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := wb.Next(ctx); err != nil {
			logger.Warn("document failed", "index", wb.Nav().Index, "error", err)
		}
	}

	if err := wb.ApplyEdits(edits); err != nil {
		return err
	}
	res, err := wb.Export(ctx)
	if err != nil {
		return err
	}

	con := console.New(wb, nil, os.Stdout, logger)
	_ = con.Exec(ctx, "table")
	logger.Info("batch complete", "documents", wb.Nav().Total, "rows", res.Rows, "location", res.Location)
	return nil
}

func newEngine(cfg common.OCRConfig, runner ocr.Runner, logger *slog.Logger) ocr.Engine {
	if strings.EqualFold(cfg.Engine, "gosseract") {
		return tesseract.NewEngine(cfg.TessdataDir, logger)
	}
	return ocr.NewCLIEngine(ocr.CLIConfig{Tesseract: cfg.Tesseract, TessdataDir: cfg.TessdataDir}, runner, logger)
}

func newLogger(cfg common.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
