// Package presenter shows one document at a time: it renders page 1 into the
// page canvas, obtains the page text (embedded text layer first, OCR when the
// layer is empty), extracts the offer fields and stores them for the document.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/offerscan/constants"
	"github.com/joseph-ayodele/offerscan/internal/common"
	"github.com/joseph-ayodele/offerscan/internal/core/document"
	"github.com/joseph-ayodele/offerscan/internal/core/fields"
	"github.com/joseph-ayodele/offerscan/internal/core/ocr"
	"github.com/joseph-ayodele/offerscan/internal/ingest"
	"github.com/joseph-ayodele/offerscan/internal/repository"
	"github.com/joseph-ayodele/offerscan/internal/surface"
)

// ErrSuperseded is returned by a Show that lost to a later Show.
var ErrSuperseded = errors.New("presentation superseded by a later navigation")

// Host receives everything a presentation publishes outside the surfaces.
// Calls happen with the controller lock held and must not call back into it.
type Host interface {
	SetStatus(msg string)
	// StoreRecord replaces the record at index and refreshes the table.
	StoreRecord(index int, r fields.Record) error
}

type Controller struct {
	src     document.Source
	engine  ocr.Engine
	canvas  *surface.Canvas
	overlay *surface.Overlay
	host    Host
	logger  *slog.Logger

	scale         float64
	lang          string
	renderTimeout time.Duration
	ocrTimeout    time.Duration
	jobs          repository.ExtractJobRepository

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

type Option func(*Controller)

func WithScale(s float64) Option {
	return func(c *Controller) {
		if s > 0 {
			c.scale = s
		}
	}
}

func WithLanguage(lang string) Option {
	return func(c *Controller) {
		if lang != "" {
			c.lang = lang
		}
	}
}

func WithRenderTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.renderTimeout = d
		}
	}
}

func WithOCRTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.ocrTimeout = d
		}
	}
}

// WithJournal records every attempt in jobs.
func WithJournal(jobs repository.ExtractJobRepository) Option {
	return func(c *Controller) { c.jobs = jobs }
}

func NewController(src document.Source, engine ocr.Engine, canvas *surface.Canvas, overlay *surface.Overlay, host Host, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		src:     src,
		engine:  engine,
		canvas:  canvas,
		overlay: overlay,
		host:    host,
		logger:  logger,
		scale:   constants.DefaultRenderScale,
		lang:    constants.DefaultOCRLanguage,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Show presents doc, which sits at index in the record store. Failures are
// reported through the host and also returned; ErrSuperseded means a later
// Show took over and nothing was written.
func (c *Controller) Show(ctx context.Context, index int, doc ingest.Document) (fields.Record, error) {
	start := time.Now()
	ctx, gen := c.begin(ctx)
	defer c.release(gen)
	ctx = common.WithDocumentID(ctx, doc.ID.String())
	ctx = common.WithAttempt(ctx, gen)
	log := c.logger.With("document_id", doc.ID, "index", index, "attempt", gen)

	if err := c.commit(gen, func() {
		c.host.SetStatus(constants.StatusLoading)
		c.overlay.Clear()
	}); err != nil {
		return fields.Record{}, err
	}

	jobID := c.startJob(ctx, doc.ID, index)

	text, method, err := c.readPage(ctx, gen, doc)
	if err == nil {
		rec := fields.Extract(text)
		err = c.commit(gen, func() {
			if text == "" {
				c.host.SetStatus(constants.StatusNoTextFound)
			} else {
				c.host.SetStatus(text)
			}
			if serr := c.host.StoreRecord(index, rec); serr != nil {
				log.Error("presenter.store.failed", "err", serr)
			}
		})
		if err == nil {
			c.finishText(ctx, jobID, method, text)
			log.Info("presenter.show.ok", "method", method, "chars", len(text), "duration_ms", time.Since(start).Milliseconds())
			return rec, nil
		}
	}

	if errors.Is(err, ErrSuperseded) || !c.isCurrent(gen) {
		c.finishSuperseded(jobID)
		log.Debug("presenter.show.superseded", "duration_ms", time.Since(start).Milliseconds())
		return fields.Record{}, ErrSuperseded
	}

	msg := common.Message(err)
	if cerr := c.commit(gen, func() {
		c.host.SetStatus("Error: " + msg)
		if serr := c.host.StoreRecord(index, fields.ErrorRecord()); serr != nil {
			log.Error("presenter.store.failed", "err", serr)
		}
	}); cerr != nil {
		c.finishSuperseded(jobID)
		return fields.Record{}, ErrSuperseded
	}
	c.finishFailure(jobID, msg)
	log.Warn("presenter.show.failed", "err", err, "duration_ms", time.Since(start).Milliseconds())
	return fields.ErrorRecord(), err
}

// readPage renders page 1 into the canvas and returns its text.
func (c *Controller) readPage(ctx context.Context, gen uint64, doc ingest.Document) (string, constants.ExtractMethod, error) {
	h, err := c.src.Open(ctx, doc.Content)
	if err != nil {
		return "", "", fmt.Errorf("open %s: %w", doc.Name, err)
	}
	defer h.Close()

	page, err := h.Page(ctx, 1)
	if err != nil {
		return "", "", fmt.Errorf("page 1: %w", err)
	}

	img, err := c.render(ctx, page)
	if err != nil {
		return "", "", fmt.Errorf("render: %w", err)
	}
	if err := c.commit(gen, func() {
		c.canvas.SetPage(img)
		c.overlay.SyncTo(c.canvas)
	}); err != nil {
		return "", "", err
	}

	items, err := page.TextContent(ctx)
	if err != nil {
		return "", "", fmt.Errorf("text layer: %w", err)
	}
	if text := document.JoinText(items); text != "" {
		return text, constants.MethodPDFText, nil
	}

	if err := c.commit(gen, func() { c.host.SetStatus(constants.StatusRunningOCR) }); err != nil {
		return "", "", err
	}
	text, err := c.recognize(ctx, img)
	if err != nil {
		return "", "", fmt.Errorf("ocr: %w", err)
	}
	return text, constants.MethodPDFOCR, nil
}

func (c *Controller) render(ctx context.Context, page document.Page) (*image.RGBA, error) {
	ctx, cancel := common.WithOptionalTimeout(ctx, c.renderTimeout)
	defer cancel()
	return page.Render(ctx, c.scale)
}

func (c *Controller) recognize(ctx context.Context, img image.Image) (string, error) {
	ctx, cancel := common.WithOptionalTimeout(ctx, c.ocrTimeout)
	defer cancel()
	return c.engine.Recognize(ctx, img, ocr.DefaultOptions(c.lang))
}

// Resize keeps the overlay the same size as the page canvas.
func (c *Controller) Resize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlay.SyncTo(c.canvas)
}

// Cancel abandons the in-flight Show, if any.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) begin(parent context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	return ctx, c.gen
}

func (c *Controller) release(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// commit runs fn only while gen is still the latest attempt.
func (c *Controller) commit(gen uint64, fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return ErrSuperseded
	}
	fn()
	return nil
}

func (c *Controller) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

func (c *Controller) startJob(ctx context.Context, docID uuid.UUID, index int) uuid.UUID {
	if c.jobs == nil {
		return uuid.Nil
	}
	job, err := c.jobs.Start(ctx, docID, index, constants.MethodPDFText)
	if err != nil {
		c.logger.Warn("presenter.journal.start_failed", "document_id", docID, "err", err)
		return uuid.Nil
	}
	return job.ID
}

// journal updates use a fresh context: the attempt's own may be cancelled.
func (c *Controller) finishText(ctx context.Context, id uuid.UUID, method constants.ExtractMethod, text string) {
	if c.jobs == nil || id == uuid.Nil {
		return
	}
	if err := c.jobs.FinishText(context.WithoutCancel(ctx), id, method, text); err != nil {
		c.logger.Warn("presenter.journal.finish_failed", "job_id", id, "err", err)
	}
}

func (c *Controller) finishFailure(id uuid.UUID, msg string) {
	if c.jobs == nil || id == uuid.Nil {
		return
	}
	if err := c.jobs.FinishFailure(context.Background(), id, msg); err != nil {
		c.logger.Warn("presenter.journal.finish_failed", "job_id", id, "err", err)
	}
}

func (c *Controller) finishSuperseded(id uuid.UUID) {
	if c.jobs == nil || id == uuid.Nil {
		return
	}
	if err := c.jobs.FinishSuperseded(context.Background(), id); err != nil {
		c.logger.Warn("presenter.journal.finish_failed", "job_id", id, "err", err)
	}
}
