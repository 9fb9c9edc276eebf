// Package document opens uploaded PDFs, renders page images and reads the
// embedded text layer.
package document

import (
	"context"
	"errors"
	"image"
	"strings"
)

var (
	// ErrNoPages is returned for documents without a first page.
	ErrNoPages = errors.New("document has no pages")
	// ErrMalformed wraps decode failures of the document itself.
	ErrMalformed = errors.New("malformed document")
)

// TextItem is one positioned fragment of a page's text layer.
type TextItem struct {
	Str      string
	X, Y     float64
	Width    float64
	FontSize float64
}

// Source opens document content.
type Source interface {
	Open(ctx context.Context, content []byte) (Handle, error)
}

// Handle is an opened document.
type Handle interface {
	NumPages() int
	Page(ctx context.Context, n int) (Page, error)
	Close() error
}

// Page is a single page of an opened document.
type Page interface {
	// Render draws the page at scale (1.0 = 72 DPI) and returns the pixels.
	Render(ctx context.Context, scale float64) (*image.RGBA, error)
	// TextContent returns the embedded text fragments in content order.
	TextContent(ctx context.Context) ([]TextItem, error)
}

// JoinText concatenates fragment strings with single spaces and trims the result.
func JoinText(items []TextItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, it.Str)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
