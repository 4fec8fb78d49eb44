package engine

import (
	"image"
	"image/color"
	"sync"

	"github.com/pthm-cable/fields/field"
)

// Canvas is a raster that can be read while a render writes to it.
type Canvas struct {
	mu  sync.RWMutex
	img *image.RGBA
}

// NewCanvas allocates a w x h canvas.
func NewCanvas(w, h int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// NewCanvasFrom wraps img. The caller must not touch img afterwards.
func NewCanvasFrom(img *image.RGBA) *Canvas {
	return &Canvas{img: img}
}

// Width implements field.Raster.
func (c *Canvas) Width() int { return c.img.Rect.Dx() }

// Height implements field.Raster.
func (c *Canvas) Height() int { return c.img.Rect.Dy() }

// FillBlock implements field.Raster.
func (c *Canvas) FillBlock(x, y, w, h int, col color.RGBA) {
	c.mu.Lock()
	(&field.ImageRaster{Img: c.img}).FillBlock(x, y, w, h, col)
	c.mu.Unlock()
}

// Image returns a copy of the current pixels.
func (c *Canvas) Image() *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := image.NewRGBA(c.img.Rect)
	copy(out.Pix, c.img.Pix)
	return out
}

// RGBA copies the pixels into dst in row-major order, growing it if
// needed, and returns it. The layout matches what texture uploads expect.
func (c *Canvas) RGBA(dst []color.RGBA) []color.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, h := c.img.Rect.Dx(), c.img.Rect.Dy()
	if cap(dst) < w*h {
		dst = make([]color.RGBA, w*h)
	}
	dst = dst[:w*h]
	for y := 0; y < h; y++ {
		row := c.img.Pix[y*c.img.Stride : y*c.img.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4 : x*4+4]
			dst[y*w+x] = color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
		}
	}
	return dst
}
