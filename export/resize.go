package export

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// RotateCW returns img turned 90 degrees clockwise.
func RotateCW(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	// (x, y) -> (h - y, x), relative to the source origin
	s2d := f64.Aff3{
		0, -1, float64(h + b.Min.Y),
		1, 0, float64(-b.Min.X),
	}
	draw.NearestNeighbor.Transform(dst, s2d, img, b, draw.Src, nil)
	return dst
}

// RotateCCW returns img turned 90 degrees counter-clockwise.
func RotateCCW(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	// (x, y) -> (y, w - x), relative to the source origin
	s2d := f64.Aff3{
		0, 1, float64(-b.Min.Y),
		-1, 0, float64(w + b.Min.X),
	}
	draw.NearestNeighbor.Transform(dst, s2d, img, b, draw.Src, nil)
	return dst
}

// Scale resamples img to w x h.
func Scale(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func portrait(w, h int) bool { return h > w }

// Refit adapts a previous raster to a new w x h surface so something
// sensible shows while the new render runs. When the orientation flipped
// the old picture is turned first: clockwise into portrait, counter-clockwise
// into landscape. Returns nil when there is nothing to adapt.
func Refit(prev image.Image, w, h int) *image.RGBA {
	if prev == nil || w <= 0 || h <= 0 {
		return nil
	}
	b := prev.Bounds()
	if b.Empty() {
		return nil
	}
	src := prev
	if portrait(b.Dx(), b.Dy()) != portrait(w, h) {
		if portrait(w, h) {
			src = RotateCW(prev)
		} else {
			src = RotateCCW(prev)
		}
	}
	return Scale(src, w, h)
}
