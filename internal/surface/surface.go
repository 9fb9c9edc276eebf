// Package surface holds the two drawing surfaces of the viewer: the page
// canvas with the rendered document page, and the transparent overlay on
// which the selection outline is drawn.
package surface

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
)

// Highlight is the selection outline color.
var Highlight = color.RGBA{R: 255, A: 255}

// OutlineWidth is the selection outline stroke in pixels.
const OutlineWidth = 2

// Canvas is the page canvas. The zero value is an empty canvas.
type Canvas struct {
	mu  sync.RWMutex
	img *image.RGBA
}

// SetPage replaces the canvas contents with img.
func (c *Canvas) SetPage(img *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.img = img
}

// Bounds reports the canvas size; empty when nothing is rendered.
func (c *Canvas) Bounds() image.Rectangle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.img == nil {
		return image.Rectangle{}
	}
	return c.img.Bounds()
}

// Crop copies r, clipped to the canvas, into a new off-screen surface whose
// origin is (0,0). The result is empty when r misses the canvas.
func (c *Canvas) Crop(r image.Rectangle) *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.img == nil {
		return image.NewRGBA(image.Rectangle{})
	}
	r = r.Intersect(c.img.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	if r.Empty() {
		return dst
	}
	draw.Copy(dst, image.Point{}, c.img, r, draw.Src, nil)
	return dst
}

// Snapshot returns a copy of the page pixels.
func (c *Canvas) Snapshot() *image.RGBA {
	return c.Crop(c.Bounds())
}

// Overlay is the transparent layer kept the same size as the page canvas.
type Overlay struct {
	mu  sync.Mutex
	img *image.RGBA
}

// SyncTo resizes the overlay to match the canvas; the overlay is cleared.
func (o *Overlay) SyncTo(c *Canvas) {
	b := c.Bounds()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.img = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
}

// Bounds reports the overlay size.
func (o *Overlay) Bounds() image.Rectangle {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.img == nil {
		return image.Rectangle{}
	}
	return o.img.Bounds()
}

// Clear makes the overlay fully transparent.
func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.img == nil {
		return
	}
	draw.Draw(o.img, o.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// StrokeRect clears the overlay and outlines r in the highlight color.
func (o *Overlay) StrokeRect(r image.Rectangle) {
	o.Clear()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.img == nil || r.Empty() {
		return
	}
	fill := image.NewUniform(Highlight)
	w := OutlineWidth
	edges := []image.Rectangle{
		image.Rect(r.Min.X-w/2, r.Min.Y-w/2, r.Max.X+w/2, r.Min.Y+w/2), // top
		image.Rect(r.Min.X-w/2, r.Max.Y-w/2, r.Max.X+w/2, r.Max.Y+w/2), // bottom
		image.Rect(r.Min.X-w/2, r.Min.Y-w/2, r.Min.X+w/2, r.Max.Y+w/2), // left
		image.Rect(r.Max.X-w/2, r.Min.Y-w/2, r.Max.X+w/2, r.Max.Y+w/2), // right
	}
	for _, e := range edges {
		draw.Draw(o.img, e.Intersect(o.img.Bounds()), fill, image.Point{}, draw.Src)
	}
}

// Composite draws the overlay over a copy of the page.
func Composite(c *Canvas, o *Overlay) *image.RGBA {
	out := c.Snapshot()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.img != nil {
		draw.Draw(out, out.Bounds(), o.img, image.Point{}, draw.Over)
	}
	return out
}
