package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/draw"

	"github.com/joseph-ayodele/offerscan/internal/core/ocr"
)

// Config locates the rasterizer.
type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
}

// PDFSource validates documents with pdfcpu, reads the text layer with
// ledongthuc/pdf and rasterizes pages with poppler's pdftoppm.
type PDFSource struct {
	cfg    Config
	runner ocr.Runner
	logger *slog.Logger
}

func NewPDFSource(cfg Config, runner ocr.Runner, logger *slog.Logger) *PDFSource {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.ExecRunner{}
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	return &PDFSource{cfg: cfg, runner: runner, logger: logger}
}

func (s *PDFSource) Open(ctx context.Context, content []byte) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pages, err := api.PageCount(bytes.NewReader(content), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if pages < 1 {
		return nil, ErrNoPages
	}

	reader, err := openReader(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	s.logger.Debug("document opened", "pages", pages, "bytes", len(content))
	return &pdfHandle{src: s, content: content, reader: reader, pages: pages}, nil
}

func openReader(content []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("pdf reader: %v", p)
		}
	}()
	return pdf.NewReader(bytes.NewReader(content), int64(len(content)))
}

type pdfHandle struct {
	src     *PDFSource
	content []byte
	reader  *pdf.Reader
	pages   int
}

func (h *pdfHandle) NumPages() int { return h.pages }

func (h *pdfHandle) Page(_ context.Context, n int) (Page, error) {
	if n < 1 || n > h.pages {
		return nil, fmt.Errorf("page %d out of range 1..%d", n, h.pages)
	}
	return &pdfPage{h: h, n: n}, nil
}

func (h *pdfHandle) Close() error { return nil }

type pdfPage struct {
	h *pdfHandle
	n int
}

// Render runs pdftoppm -f n -l n -r <dpi> -png -singlefile <in.pdf> <tmp/page>.
func (p *pdfPage) Render(ctx context.Context, scale float64) (*image.RGBA, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("invalid render scale %v", scale)
	}
	s := p.h.src
	tmpDir, err := os.MkdirTemp("", "offerscan-render-*")
	if err != nil {
		return nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn("failed to remove temp dir", "path", path, "error", err)
		}
	}(tmpDir)

	in := filepath.Join(tmpDir, "source.pdf")
	if err := os.WriteFile(in, p.h.content, 0o600); err != nil {
		return nil, err
	}
	prefix := filepath.Join(tmpDir, "page")
	page := strconv.Itoa(p.n)
	dpi := strconv.FormatFloat(72*scale, 'f', -1, 64)

	_, errb, err := s.runner.Run(ctx, s.cfg.Pdftoppm, s.logger, "-f", page, "-l", page, "-r", dpi, "-png", "-singlefile", in, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, ocr.Truncate(string(errb), 512))
	}

	f, err := os.Open(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no image: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode rendered page: %w", err)
	}
	return toRGBA(img), nil
}

func (p *pdfPage) TextContent(ctx context.Context) (items []TextItem, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, fmt.Errorf("%w: text layer: %v", ErrMalformed, r)
		}
	}()
	pg := p.h.reader.Page(p.n)
	if pg.V.IsNull() {
		return nil, nil
	}
	return mergeGlyphs(pg.Content().Text), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
