package presenter

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/offerscan/constants"
	"github.com/joseph-ayodele/offerscan/internal/common"
	"github.com/joseph-ayodele/offerscan/internal/core/document"
	"github.com/joseph-ayodele/offerscan/internal/core/fields"
	"github.com/joseph-ayodele/offerscan/internal/core/ocr"
	"github.com/joseph-ayodele/offerscan/internal/ingest"
	"github.com/joseph-ayodele/offerscan/internal/repository"
	"github.com/joseph-ayodele/offerscan/internal/surface"
)

type fakePage struct {
	items     []document.TextItem
	renderErr error
	block     chan struct{} // closed when Render is entered; Render then waits for cancellation
	seenDoc   string
	seenTry   uint64
}

func (p *fakePage) Render(ctx context.Context, scale float64) (*image.RGBA, error) {
	p.seenDoc, p.seenTry = common.DocumentIDFromContext(ctx), common.AttemptFromContext(ctx)
	if p.block != nil {
		close(p.block)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.renderErr != nil {
		return nil, p.renderErr
	}
	img := image.NewRGBA(image.Rect(0, 0, int(100*scale), int(140*scale)))
	img.Set(0, 0, color.White)
	return img, nil
}

func (p *fakePage) TextContent(context.Context) ([]document.TextItem, error) {
	return p.items, nil
}

type fakeHandle struct{ page *fakePage }

func (h fakeHandle) NumPages() int { return 1 }
func (h fakeHandle) Page(context.Context, int) (document.Page, error) {
	return h.page, nil
}
func (h fakeHandle) Close() error { return nil }

// fakeSource serves pages keyed by document content.
type fakeSource map[string]*fakePage

func (s fakeSource) Open(_ context.Context, content []byte) (document.Handle, error) {
	p, ok := s[string(content)]
	if !ok {
		return nil, document.ErrMalformed
	}
	return fakeHandle{page: p}, nil
}

type fakeEngine struct {
	text  string
	err   error
	calls int
	opts  ocr.Options
}

func (e *fakeEngine) Name() string { return "fake" }
func (e *fakeEngine) Recognize(_ context.Context, _ image.Image, opts ocr.Options) (string, error) {
	e.calls++
	e.opts = opts
	return e.text, e.err
}

type fakeHost struct {
	mu       sync.Mutex
	statuses []string
	records  map[int]fields.Record
}

func newHost() *fakeHost { return &fakeHost{records: map[int]fields.Record{}} }

func (h *fakeHost) SetStatus(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, msg)
}

func (h *fakeHost) StoreRecord(i int, r fields.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records[i] = r
	return nil
}

func (h *fakeHost) last() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.statuses[len(h.statuses)-1]
}

func doc(content string) ingest.Document {
	return ingest.Document{ID: uuid.New(), Name: content + ".pdf", Content: []byte(content)}
}

func newJournal(t *testing.T) repository.ExtractJobRepository {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, slog.Default()) })
	return repository.NewExtractJobRepository(db, nil)
}

func TestShowUsesTextLayer(t *testing.T) {
	src := fakeSource{"a": {items: []document.TextItem{
		{Str: "Dear Asha Verma,"}, {Str: "internship with Orion Labs Pvt Ltd,"}, {Str: "for a duration of 6 months."},
	}}}
	eng := &fakeEngine{}
	host := newHost()
	canvas, overlay := &surface.Canvas{}, &surface.Overlay{}
	jobs := newJournal(t)
	c := NewController(src, eng, canvas, overlay, host, nil, WithJournal(jobs))

	d := doc("a")
	rec, err := c.Show(context.Background(), 0, d)
	require.NoError(t, err)

	want := fields.Record{Name: "Asha Verma", Company: "Orion Labs Pvt Ltd", Duration: "6 months"}
	assert.Equal(t, want, rec)
	assert.Equal(t, want, host.records[0])
	assert.Equal(t, 0, eng.calls)
	assert.Equal(t, constants.StatusLoading, host.statuses[0])
	assert.Equal(t, image.Rect(0, 0, 250, 350), canvas.Bounds())
	assert.Equal(t, canvas.Bounds(), overlay.Bounds())
	assert.Equal(t, d.ID.String(), src["a"].seenDoc, "render runs tagged with the document")
	assert.Equal(t, uint64(1), src["a"].seenTry)

	list, err := jobs.ListByDocument(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, constants.JobStatusTextOK, list[0].Status)
	assert.Equal(t, constants.MethodPDFText, list[0].Method)
}

func TestShowFallsBackToOCR(t *testing.T) {
	src := fakeSource{"scan": {items: []document.TextItem{{Str: "  "}}}}
	eng := &fakeEngine{text: "Dear Ravi Kumar, join Nimbus Systems for 3 months"}
	host := newHost()
	c := NewController(src, eng, &surface.Canvas{}, &surface.Overlay{}, host, nil, WithLanguage("eng"))

	rec, err := c.Show(context.Background(), 2, doc("scan"))
	require.NoError(t, err)
	assert.Equal(t, 1, eng.calls)
	assert.Equal(t, ocr.DefaultOptions("eng"), eng.opts)
	assert.Contains(t, host.statuses, constants.StatusRunningOCR)
	assert.Equal(t, "Ravi Kumar", rec.Name)
	assert.Equal(t, "3 months", rec.Duration)
	assert.Equal(t, rec, host.records[2])
}

func TestShowEmptyOCRStoresNotFound(t *testing.T) {
	src := fakeSource{"blank": {}}
	host := newHost()
	c := NewController(src, &fakeEngine{}, &surface.Canvas{}, &surface.Overlay{}, host, nil)

	rec, err := c.Show(context.Background(), 0, doc("blank"))
	require.NoError(t, err)
	assert.Equal(t, constants.StatusNoTextFound, host.last())
	assert.Equal(t, fields.Record{Name: constants.NotFound, Company: constants.NotFound, Duration: constants.NotFound}, rec)
}

func TestShowFailureStoresErrorRecord(t *testing.T) {
	tests := []struct {
		name string
		src  fakeSource
		eng  *fakeEngine
	}{
		{name: "malformed", src: fakeSource{}, eng: &fakeEngine{}},
		{name: "render", src: fakeSource{"x": {renderErr: errors.New("pdftoppm exploded")}}, eng: &fakeEngine{}},
		{name: "ocr", src: fakeSource{"x": {}}, eng: &fakeEngine{err: errors.New("tesseract missing")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := newHost()
			jobs := newJournal(t)
			c := NewController(tt.src, tt.eng, &surface.Canvas{}, &surface.Overlay{}, host, nil, WithJournal(jobs))

			d := doc("x")
			rec, err := c.Show(context.Background(), 1, d)
			require.Error(t, err)
			assert.Equal(t, fields.ErrorRecord(), rec)
			assert.Equal(t, fields.ErrorRecord(), host.records[1])
			assert.Regexp(t, `^Error: `, host.last())

			list, err := jobs.ListByDocument(context.Background(), d.ID)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, constants.JobStatusFailed, list[0].Status)
		})
	}
}

func TestLaterShowSupersedesEarlier(t *testing.T) {
	entered := make(chan struct{})
	src := fakeSource{
		"slow": {block: entered},
		"fast": {items: []document.TextItem{{Str: "Dear Meera Nair, at Quantum Soft for 8 weeks"}}},
	}
	host := newHost()
	canvas := &surface.Canvas{}
	jobs := newJournal(t)
	c := NewController(src, &fakeEngine{}, canvas, &surface.Overlay{}, host, nil, WithJournal(jobs))

	slow := doc("slow")
	done := make(chan error, 1)
	go func() {
		_, err := c.Show(context.Background(), 0, slow)
		done <- err
	}()
	<-entered

	rec, err := c.Show(context.Background(), 1, doc("fast"))
	require.NoError(t, err)
	assert.Equal(t, "Meera Nair", rec.Name)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded Show did not return")
	}

	_, written := host.records[0]
	assert.False(t, written, "superseded attempt must not write its record")
	assert.NotEqual(t, "Error: context canceled", host.last())

	list, err := jobs.ListByDocument(context.Background(), slow.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, constants.JobStatusSuperseded, list[0].Status)
}

func TestResizeSyncsOverlay(t *testing.T) {
	canvas, overlay := &surface.Canvas{}, &surface.Overlay{}
	c := NewController(fakeSource{}, &fakeEngine{}, canvas, overlay, newHost(), nil)
	canvas.SetPage(image.NewRGBA(image.Rect(0, 0, 40, 30)))
	c.Resize()
	assert.Equal(t, image.Rect(0, 0, 40, 30), overlay.Bounds())
}
