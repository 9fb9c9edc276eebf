package document

import (
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// mergeGlyphs folds the per-glyph output of the pdf reader into text runs:
// consecutive glyphs on the same baseline with no visible gap become one item,
// a blank glyph or a gap starts a new one.
func mergeGlyphs(glyphs []pdf.Text) []TextItem {
	var items []TextItem
	var cur *TextItem
	var b strings.Builder

	flush := func() {
		if cur == nil {
			return
		}
		cur.Str = b.String()
		if strings.TrimSpace(cur.Str) != "" {
			items = append(items, *cur)
		}
		cur = nil
		b.Reset()
	}

	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}
		if cur != nil && continues(*cur, g) {
			b.WriteString(g.S)
			cur.Width = g.X + g.W - cur.X
			continue
		}
		flush()
		cur = &TextItem{X: g.X, Y: g.Y, Width: g.W, FontSize: g.FontSize}
		b.WriteString(g.S)
	}
	flush()
	return items
}

func continues(run TextItem, g pdf.Text) bool {
	size := math.Max(run.FontSize, 1)
	if math.Abs(run.Y-g.Y) > size*0.2 {
		return false
	}
	gap := g.X - (run.X + run.Width)
	return gap > -size*0.5 && gap < size*0.25
}
