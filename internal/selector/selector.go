// Package selector implements the crop tool: a single-shot drag gesture over
// the page that re-runs recognition on the selected region and replaces the
// record of the displayed document.
package selector

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/offerscan/constants"
	"github.com/joseph-ayodele/offerscan/internal/common"
	"github.com/joseph-ayodele/offerscan/internal/core/fields"
	"github.com/joseph-ayodele/offerscan/internal/core/ocr"
	"github.com/joseph-ayodele/offerscan/internal/ingest"
	"github.com/joseph-ayodele/offerscan/internal/repository"
	"github.com/joseph-ayodele/offerscan/internal/surface"
)

// State of the gesture.
type State int

const (
	Idle State = iota
	Armed
	Dragging
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Drag is a pointer gesture in page canvas pixels.
type Drag struct {
	StartX, StartY int
	EndX, EndY     int
}

// Rect is the selected rectangle regardless of drag direction.
func (d Drag) Rect() image.Rectangle {
	return image.Rect(d.StartX, d.StartY, d.EndX, d.EndY)
}

// Accepted reports whether the selection is large enough to recognize.
func (d Drag) Accepted() bool {
	r := d.Rect()
	return r.Dx() > constants.MinSelectionSize && r.Dy() > constants.MinSelectionSize
}

// Outcome of a released gesture.
type Outcome int

const (
	Ignored   Outcome = iota // no gesture in progress
	Discarded                // selection too small or nothing to crop
	NoText                   // recognition found nothing; record untouched
	Failed                   // recognition error; record untouched
	Stored                   // record replaced
)

type Host interface {
	SetStatus(msg string)
	// Current is the displayed document; ok is false with an empty batch.
	Current() (doc ingest.Document, index int, ok bool)
	StoreRecord(index int, r fields.Record) error
}

type Selector struct {
	canvas  *surface.Canvas
	overlay *surface.Overlay
	engine  ocr.Engine
	host    Host
	logger  *slog.Logger

	lang    string
	timeout time.Duration
	jobs    repository.ExtractJobRepository

	mu    sync.Mutex
	state State
	drag  Drag
}

type Option func(*Selector)

func WithLanguage(lang string) Option {
	return func(s *Selector) {
		if lang != "" {
			s.lang = lang
		}
	}
}

func WithOCRTimeout(d time.Duration) Option {
	return func(s *Selector) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithJournal(jobs repository.ExtractJobRepository) Option {
	return func(s *Selector) { s.jobs = jobs }
}

func New(canvas *surface.Canvas, overlay *surface.Overlay, engine ocr.Engine, host Host, logger *slog.Logger, opts ...Option) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Selector{
		canvas:  canvas,
		overlay: overlay,
		engine:  engine,
		host:    host,
		logger:  logger,
		lang:    constants.DefaultOCRLanguage,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Activate arms one gesture. It is a no-op unless the selector is idle.
func (s *Selector) Activate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return false
	}
	s.state = Armed
	return true
}

// Press starts the drag at (x, y) when armed.
func (s *Selector) Press(x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Armed {
		return false
	}
	s.state = Dragging
	s.drag = Drag{StartX: x, StartY: y, EndX: x, EndY: y}
	return true
}

// Move extends the drag and redraws the outline.
func (s *Selector) Move(x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Dragging {
		return false
	}
	s.drag.EndX, s.drag.EndY = x, y
	s.overlay.StrokeRect(s.drag.Rect())
	return true
}

// Release ends the drag at (x, y). Accepted selections are cropped from the
// page canvas and recognized; non-empty text replaces the displayed
// document's record. The selector is idle again afterwards.
func (s *Selector) Release(ctx context.Context, x, y int) (Outcome, error) {
	s.mu.Lock()
	if s.state != Dragging {
		s.mu.Unlock()
		return Ignored, nil
	}
	s.drag.EndX, s.drag.EndY = x, y
	drag := s.drag
	s.state = Committing
	s.overlay.Clear()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()
	}()

	if !drag.Accepted() {
		s.logger.Debug("selector.discarded", "rect", drag.Rect().String())
		return Discarded, nil
	}
	doc, index, ok := s.host.Current()
	if !ok {
		return Discarded, nil
	}
	crop := s.canvas.Crop(drag.Rect())
	if crop.Bounds().Empty() {
		return Discarded, nil
	}
	return s.recognize(ctx, doc, index, crop)
}

func (s *Selector) recognize(ctx context.Context, doc ingest.Document, index int, crop *image.RGBA) (Outcome, error) {
	start := time.Now()
	log := s.logger.With("document_id", doc.ID, "index", index, "width", crop.Bounds().Dx(), "height", crop.Bounds().Dy())
	s.host.SetStatus(constants.StatusCropOCR)
	jobID := s.startJob(ctx, doc.ID, index)

	octx, cancel := common.WithOptionalTimeout(common.WithDocumentID(ctx, doc.ID.String()), s.timeout)
	text, err := s.engine.Recognize(octx, crop, ocr.DefaultOptions(s.lang))
	cancel()
	if err != nil {
		msg := common.Message(err)
		s.host.SetStatus("OCR failed: " + msg)
		s.finish(jobID, func(ctx context.Context, id uuid.UUID) error { return s.jobs.FinishFailure(ctx, id, msg) })
		log.Warn("selector.ocr.failed", "err", err)
		return Failed, err
	}
	if text == "" {
		s.host.SetStatus(constants.StatusCropNoText)
		s.finish(jobID, func(ctx context.Context, id uuid.UUID) error {
			return s.jobs.FinishText(ctx, id, constants.MethodCropOCR, "")
		})
		log.Info("selector.ocr.empty", "duration_ms", time.Since(start).Milliseconds())
		return NoText, nil
	}

	rec := fields.Extract(text)
	if err := s.host.StoreRecord(index, rec); err != nil {
		s.host.SetStatus("Error: " + common.Message(err))
		s.finish(jobID, func(ctx context.Context, id uuid.UUID) error { return s.jobs.FinishFailure(ctx, id, err.Error()) })
		return Failed, err
	}
	s.host.SetStatus(text)
	s.finish(jobID, func(ctx context.Context, id uuid.UUID) error {
		return s.jobs.FinishText(ctx, id, constants.MethodCropOCR, text)
	})
	log.Info("selector.ocr.ok", "chars", len(text), "duration_ms", time.Since(start).Milliseconds())
	return Stored, nil
}

func (s *Selector) startJob(ctx context.Context, docID uuid.UUID, index int) uuid.UUID {
	if s.jobs == nil {
		return uuid.Nil
	}
	job, err := s.jobs.Start(ctx, docID, index, constants.MethodCropOCR)
	if err != nil {
		s.logger.Warn("selector.journal.start_failed", "document_id", docID, "err", err)
		return uuid.Nil
	}
	return job.ID
}

func (s *Selector) finish(id uuid.UUID, fn func(context.Context, uuid.UUID) error) {
	if s.jobs == nil || id == uuid.Nil {
		return
	}
	if err := fn(context.Background(), id); err != nil {
		s.logger.Warn("selector.journal.finish_failed", "job_id", id, "err", err)
	}
}
