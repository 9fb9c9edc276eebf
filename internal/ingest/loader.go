package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/offerscan/constants"
	"github.com/joseph-ayodele/offerscan/internal/common"
)

// Loader reads upload batches from the local filesystem.
type Loader struct {
	workers int
	logger  *slog.Logger
}

func NewLoader(workers int, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	return &Loader{workers: workers, logger: logger}
}

// Load reads every path concurrently and returns documents in argument order.
// Any unreadable or disallowed file fails the whole batch.
func (l *Loader) Load(ctx context.Context, paths []string) ([]Document, error) {
	docs := make([]Document, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			d, err := l.loadOne(ctx, i, p)
			if err != nil {
				return err
			}
			docs[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	l.logger.Info("ingest.batch.ok", "documents", len(docs))
	return docs, nil
}

func (l *Loader) loadOne(ctx context.Context, index int, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(path) == "" {
		return Document{}, common.NewAppError("INGEST_ERROR", "empty path", common.ErrInvalidInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Document{}, fmt.Errorf("abs path: %w", err)
	}
	ext := constants.NormalizeExt(filepath.Ext(abs))
	if !constants.IsAllowedExt(ext) {
		l.logger.Warn("unsupported extension", "path", abs, "ext", ext)
		return Document{}, common.NewAppError("INGEST_ERROR", fmt.Sprintf("unsupported file type %q: %s", ext, filepath.Base(abs)), common.ErrInvalidInput)
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		l.logger.Error("read failed", "path", abs, "error", err)
		return Document{}, fmt.Errorf("read %s: %w", filepath.Base(abs), err)
	}
	sum := sha256.Sum256(content)
	return Document{
		ID:      uuid.New(),
		Index:   index,
		Name:    filepath.Base(abs),
		Path:    abs,
		Content: content,
		SHA256:  hex.EncodeToString(sum[:]),
	}, nil
}
