package field

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Raster is the pixel surface a render paints into.
type Raster interface {
	Width() int
	Height() int
	// FillBlock paints the w x h block at (x, y) with c. Callers only pass
	// blocks that lie inside the raster.
	FillBlock(x, y, w, h int, c color.RGBA)
}

// ImageRaster adapts an *image.RGBA to Raster.
type ImageRaster struct {
	Img *image.RGBA
}

// NewImageRaster allocates a w x h raster.
func NewImageRaster(w, h int) *ImageRaster {
	return &ImageRaster{Img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Width implements Raster.
func (r *ImageRaster) Width() int { return r.Img.Bounds().Dx() }

// Height implements Raster.
func (r *ImageRaster) Height() int { return r.Img.Bounds().Dy() }

// FillBlock implements Raster.
func (r *ImageRaster) FillBlock(x, y, w, h int, c color.RGBA) {
	origin := r.Img.Bounds().Min
	rect := image.Rect(x, y, x+w, y+h).Add(origin)
	draw.Draw(r.Img, rect, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// Image returns the backing image.
func (r *ImageRaster) Image() *image.RGBA { return r.Img }
