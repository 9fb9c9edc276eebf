// Package workbench wires the batch state, the page presenter, the crop tool,
// the editable grid and the exporter behind the handlers a user surface calls.
package workbench

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/offerscan/constants"
	"github.com/joseph-ayodele/offerscan/internal/common"
	"github.com/joseph-ayodele/offerscan/internal/core/document"
	"github.com/joseph-ayodele/offerscan/internal/core/fields"
	"github.com/joseph-ayodele/offerscan/internal/core/ocr"
	"github.com/joseph-ayodele/offerscan/internal/export"
	"github.com/joseph-ayodele/offerscan/internal/ingest"
	"github.com/joseph-ayodele/offerscan/internal/presenter"
	"github.com/joseph-ayodele/offerscan/internal/repository"
	"github.com/joseph-ayodele/offerscan/internal/selector"
	"github.com/joseph-ayodele/offerscan/internal/session"
	"github.com/joseph-ayodele/offerscan/internal/surface"
	"github.com/joseph-ayodele/offerscan/internal/table"
)

// Notifier shows blocking notices such as "No data to export".
type Notifier interface {
	Notify(msg string)
}

type Options struct {
	Scale         float64
	Language      string
	RenderTimeout time.Duration
	OCRTimeout    time.Duration
	Notifier      Notifier
}

// Nav is the navigation state: position, batch size and button enablement.
type Nav struct {
	Index   int
	Total   int
	CanPrev bool
	CanNext bool
}

type Workbench struct {
	loader   *ingest.Loader
	exporter *export.Service
	jobs     repository.ExtractJobRepository
	notifier Notifier
	logger   *slog.Logger

	canvas   *surface.Canvas
	overlay  *surface.Overlay
	grid     *table.Grid
	pages    *presenter.Controller
	selector *selector.Selector

	mu     sync.Mutex
	state  session.State
	status string
}

func New(loader *ingest.Loader, src document.Source, engine ocr.Engine, exporter *export.Service, jobs repository.ExtractJobRepository, opts Options, logger *slog.Logger) *Workbench {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Workbench{
		loader:   loader,
		exporter: exporter,
		jobs:     jobs,
		notifier: opts.Notifier,
		logger:   logger,
		canvas:   &surface.Canvas{},
		overlay:  &surface.Overlay{},
		grid:     &table.Grid{},
		status:   constants.StatusIdle,
	}
	w.pages = presenter.NewController(src, engine, w.canvas, w.overlay, w, logger,
		presenter.WithScale(opts.Scale),
		presenter.WithLanguage(opts.Language),
		presenter.WithRenderTimeout(opts.RenderTimeout),
		presenter.WithOCRTimeout(opts.OCRTimeout),
		presenter.WithJournal(jobs),
	)
	w.selector = selector.New(w.canvas, w.overlay, engine, w, logger,
		selector.WithLanguage(opts.Language),
		selector.WithOCRTimeout(opts.OCRTimeout),
		selector.WithJournal(jobs),
	)
	return w
}

// Upload replaces the batch with the documents at paths and shows the first.
func (w *Workbench) Upload(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	docs, err := w.loader.Load(ctx, paths)
	if err != nil {
		w.SetStatus("Error: " + common.Message(err))
		return err
	}
	w.pages.Cancel()

	w.mu.Lock()
	w.state = session.New(docs)
	w.grid.Render(w.state.Records())
	w.mu.Unlock()

	w.logger.Info("workbench.upload", "documents", len(docs))
	return w.show(ctx)
}

// Prev saves grid edits and moves to the previous document.
func (w *Workbench) Prev(ctx context.Context) error {
	return w.move(ctx, session.State.Prev)
}

// Next saves grid edits and moves to the next document.
func (w *Workbench) Next(ctx context.Context) error {
	return w.move(ctx, session.State.Next)
}

func (w *Workbench) move(ctx context.Context, step func(session.State) (session.State, bool)) error {
	w.mu.Lock()
	w.saveLocked()
	next, ok := step(w.state)
	if ok {
		w.state = next
	}
	w.mu.Unlock()
	if !ok {
		return nil
	}
	return w.show(ctx)
}

func (w *Workbench) show(ctx context.Context) error {
	w.mu.Lock()
	index := w.state.Current()
	doc, err := w.state.CurrentDocument()
	w.mu.Unlock()
	if err != nil {
		return err
	}
	if _, err := w.pages.Show(ctx, index, doc); err != nil && !errors.Is(err, presenter.ErrSuperseded) {
		return err
	}
	return nil
}

// saveLocked flushes the grid into the store; w.mu must be held.
func (w *Workbench) saveLocked() {
	saved, err := w.grid.Save(w.state)
	if err != nil {
		w.logger.Warn("workbench.save.failed", "err", err)
		return
	}
	w.state = saved
}

// Save flushes grid edits into the store.
func (w *Workbench) Save() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.saveLocked()
}

func (w *Workbench) EditCell(row, col int, text string) error {
	return w.grid.SetCell(row, col, text)
}

// Export saves grid edits and writes every present record to the workbook.
func (w *Workbench) Export(ctx context.Context) (export.Result, error) {
	w.mu.Lock()
	w.saveLocked()
	records := w.state.Records()
	w.mu.Unlock()

	res, err := w.exporter.Export(ctx, records)
	if errors.Is(err, export.ErrNoData) {
		w.notify(constants.StatusNoDataExport)
		return res, err
	}
	if err != nil {
		w.SetStatus("Error: " + common.Message(err))
		return res, err
	}
	w.SetStatus(constants.StatusExportWritten + res.Location)
	return res, nil
}

func (w *Workbench) ActivateCrop() bool { return w.selector.Activate() }

func (w *Workbench) PointerDown(x, y int) bool { return w.selector.Press(x, y) }

func (w *Workbench) PointerMove(x, y int) bool { return w.selector.Move(x, y) }

func (w *Workbench) PointerUp(ctx context.Context, x, y int) (selector.Outcome, error) {
	return w.selector.Release(ctx, x, y)
}

// Resize re-syncs the overlay after the viewport changed.
func (w *Workbench) Resize() { w.pages.Resize() }

// Snapshot writes the page with its overlay as PNG.
func (w *Workbench) Snapshot(out io.Writer) error {
	img := surface.Composite(w.canvas, w.overlay)
	if img.Bounds().Empty() {
		return fmt.Errorf("snapshot: %w", session.ErrNoDocuments)
	}
	return png.Encode(out, img)
}

func (w *Workbench) Rows() []table.Row { return w.grid.Rows() }

func (w *Workbench) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *Workbench) Nav() Nav {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Nav{
		Index:   w.state.Current(),
		Total:   w.state.Len(),
		CanPrev: w.state.CanPrev(),
		CanNext: w.state.CanNext(),
	}
}

// Records returns the store entries in order; absent entries are nil.
func (w *Workbench) Records() []*fields.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Records()
}

func (w *Workbench) Jobs(ctx context.Context) ([]repository.ExtractJob, error) {
	if w.jobs == nil {
		return nil, nil
	}
	return w.jobs.List(ctx)
}

func (w *Workbench) SetStatus(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = msg
}

// StoreRecord replaces the entry at index and refreshes the grid.
func (w *Workbench) StoreRecord(index int, r fields.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, err := w.state.WithRecord(index, r)
	if err != nil {
		return err
	}
	w.state = next
	w.grid.Render(w.state.Records())
	return nil
}

func (w *Workbench) Current() (ingest.Document, int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, err := w.state.CurrentDocument()
	if err != nil {
		return ingest.Document{}, 0, false
	}
	return doc, w.state.Current(), true
}

func (w *Workbench) notify(msg string) {
	if w.notifier != nil {
		w.notifier.Notify(msg)
		return
	}
	w.SetStatus(msg)
}
