package workbench

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/offerscan/constants"
	"github.com/joseph-ayodele/offerscan/internal/core/document"
	"github.com/joseph-ayodele/offerscan/internal/core/fields"
	"github.com/joseph-ayodele/offerscan/internal/core/ocr"
	"github.com/joseph-ayodele/offerscan/internal/export"
	"github.com/joseph-ayodele/offerscan/internal/ingest"
	"github.com/joseph-ayodele/offerscan/internal/selector"
	"github.com/joseph-ayodele/offerscan/internal/table"
)

// textPage renders a blank page and serves its content as the text layer.
type textPage struct{ text string }

func (p textPage) Render(_ context.Context, scale float64) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, int(200*scale), int(200*scale))), nil
}

func (p textPage) TextContent(context.Context) ([]document.TextItem, error) {
	if p.text == "" {
		return nil, nil
	}
	return []document.TextItem{{Str: p.text}}, nil
}

type textHandle struct{ page textPage }

func (h textHandle) NumPages() int                                    { return 1 }
func (h textHandle) Page(context.Context, int) (document.Page, error) { return h.page, nil }
func (h textHandle) Close() error                                     { return nil }

type textSource struct{}

func (textSource) Open(_ context.Context, content []byte) (document.Handle, error) {
	return textHandle{page: textPage{text: string(content)}}, nil
}

type fixedEngine struct{ text string }

func (e fixedEngine) Name() string { return "fixed" }
func (e fixedEngine) Recognize(context.Context, image.Image, ocr.Options) (string, error) {
	return e.text, nil
}

type memSink struct {
	mu    sync.Mutex
	names []string
}

func (m *memSink) Deliver(_ context.Context, name string, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append(m.names, name)
	return "mem://" + name, nil
}

type notices struct{ got []string }

func (n *notices) Notify(msg string) { n.got = append(n.got, msg) }

func writeDocs(t *testing.T, bodies ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for i, b := range bodies {
		p := filepath.Join(dir, string(rune('a'+i))+".pdf")
		require.NoError(t, os.WriteFile(p, []byte(b), 0o600))
		paths = append(paths, p)
	}
	return paths
}

func newBench(engineText string) (*Workbench, *memSink, *notices) {
	sink := &memSink{}
	n := &notices{}
	w := New(ingest.NewLoader(2, nil), textSource{}, fixedEngine{text: engineText},
		export.NewService(sink, nil), nil, Options{Scale: 1, Notifier: n}, nil)
	return w, sink, n
}

const (
	letterA = "Dear Asha Verma, duration of 6 months"
	letterB = "Dear Ravi Kumar, duration of 3 months"
)

func TestUploadShowsFirstDocument(t *testing.T) {
	w, _, _ := newBench("")
	require.NoError(t, w.Upload(context.Background(), writeDocs(t, letterA, letterB)))

	assert.Equal(t, Nav{Index: 0, Total: 2, CanPrev: false, CanNext: true}, w.Nav())
	recs := w.Records()
	require.Len(t, recs, 2)
	require.NotNil(t, recs[0])
	assert.Equal(t, "Asha Verma", recs[0].Name)
	assert.Nil(t, recs[1])
	assert.Equal(t, letterA, w.Status())
}

func TestUploadRejectsNonPDF(t *testing.T) {
	w, _, _ := newBench("")
	dir := t.TempDir()
	p := filepath.Join(dir, "letter.docx")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))

	require.Error(t, w.Upload(context.Background(), []string{p}))
	assert.Regexp(t, `^Error: `, w.Status())
	assert.Equal(t, 0, w.Nav().Total)
}

func TestNavigationSavesEditsFirst(t *testing.T) {
	ctx := context.Background()
	w, _, _ := newBench("")
	require.NoError(t, w.Upload(ctx, writeDocs(t, letterA, letterB)))

	require.NoError(t, w.EditCell(0, table.ColCompany, "  Orion Labs  "))
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, "Orion Labs", w.Records()[0].Company)
	assert.Equal(t, "Ravi Kumar", w.Records()[1].Name)

	// at the last document Next does not move but still saves
	require.NoError(t, w.EditCell(1, table.ColDuration, "12 weeks"))
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, 1, w.Nav().Index)
	assert.Equal(t, "12 weeks", w.Records()[1].Duration)

	require.NoError(t, w.EditCell(0, table.ColName, "A. Verma"))
	require.NoError(t, w.Prev(ctx))
	// revisiting re-extracts and replaces the record
	assert.Equal(t, "Asha Verma", w.Records()[0].Name)
	assert.False(t, w.Nav().CanPrev)
}

func TestExportWithoutDataNotifies(t *testing.T) {
	w, sink, n := newBench("")
	_, err := w.Export(context.Background())
	assert.ErrorIs(t, err, export.ErrNoData)
	assert.Equal(t, []string{constants.StatusNoDataExport}, n.got)
	assert.Empty(t, sink.names)
}

func TestExportDeliversWorkbook(t *testing.T) {
	ctx := context.Background()
	w, sink, _ := newBench("")
	require.NoError(t, w.Upload(ctx, writeDocs(t, letterA, letterB)))

	res, err := w.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)
	assert.Equal(t, []string{constants.ExportFileName}, sink.names)
	assert.Equal(t, constants.StatusExportWritten+"mem://"+constants.ExportFileName, w.Status())
}

func TestCropReplacesCurrentRecord(t *testing.T) {
	ctx := context.Background()
	w, _, _ := newBench("Dear Meera Nair, duration of 8 weeks")
	require.NoError(t, w.Upload(ctx, writeDocs(t, letterA)))

	require.True(t, w.ActivateCrop())
	require.True(t, w.PointerDown(10, 10))
	require.True(t, w.PointerMove(80, 60))
	out, err := w.PointerUp(ctx, 90, 70)
	require.NoError(t, err)
	assert.Equal(t, selector.Stored, out)
	assert.Equal(t, fields.Record{Name: "Meera Nair", Company: constants.NotFound, Duration: "8 weeks"}, *w.Records()[0])
	assert.Equal(t, "Meera Nair", w.Rows()[0].Cells[table.ColName])
}

func TestSnapshotEncodesPage(t *testing.T) {
	w, _, _ := newBench("")
	var buf bytes.Buffer
	assert.Error(t, w.Snapshot(&buf))

	require.NoError(t, w.Upload(context.Background(), writeDocs(t, letterA)))
	w.Resize()
	require.NoError(t, w.Snapshot(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 200), img.Bounds())
}
