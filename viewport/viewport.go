// Package viewport maps between window pixels and raster pixels.
package viewport

import "math"

// Viewport shows a raster inside a window. The raster can be zoomed and
// panned but is never scrolled fully out of view.
type Viewport struct {
	// Position is the view center in raster coordinates
	X, Y float32

	// Zoom level (1.0 = one raster pixel per window pixel)
	Zoom float32

	// Window dimensions
	ViewportW, ViewportH float32

	// Raster dimensions
	RasterW, RasterH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a viewport centered on the raster at 1:1 zoom.
func New(viewportW, viewportH, rasterW, rasterH float32) *Viewport {
	v := &Viewport{
		ViewportW: viewportW,
		ViewportH: viewportH,
		MaxZoom:   8.0,
	}
	v.SetRaster(rasterW, rasterH)
	v.Reset()
	return v
}

// RasterToScreen converts raster coordinates to window coordinates.
func (v *Viewport) RasterToScreen(rx, ry float32) (sx, sy float32) {
	sx = v.ViewportW/2 + (rx-v.X)*v.Zoom
	sy = v.ViewportH/2 + (ry-v.Y)*v.Zoom
	return sx, sy
}

// ScreenToRaster converts window coordinates to raster coordinates.
func (v *Viewport) ScreenToRaster(sx, sy float32) (rx, ry float32) {
	rx = v.X + (sx-v.ViewportW/2)/v.Zoom
	ry = v.Y + (sy-v.ViewportH/2)/v.Zoom
	return rx, ry
}

// Pixel returns the raster pixel under a window point and whether it lies
// inside the raster.
func (v *Viewport) Pixel(sx, sy float32) (x, y int, inside bool) {
	rx, ry := v.ScreenToRaster(sx, sy)
	x = int(math.Floor(float64(rx)))
	y = int(math.Floor(float64(ry)))
	inside = x >= 0 && y >= 0 && float32(x) < v.RasterW && float32(y) < v.RasterH
	return x, y, inside
}

// Dest returns the window rectangle the whole raster is drawn into.
func (v *Viewport) Dest() (x, y, w, h float32) {
	x, y = v.RasterToScreen(0, 0)
	return x, y, v.RasterW * v.Zoom, v.RasterH * v.Zoom
}

// Resize updates the window dimensions.
func (v *Viewport) Resize(viewportW, viewportH float32) {
	if viewportW == v.ViewportW && viewportH == v.ViewportH {
		return
	}
	v.ViewportW = viewportW
	v.ViewportH = viewportH
	v.updateMinZoom()
	v.SetZoom(v.Zoom)
}

// SetRaster updates the raster dimensions and keeps the view on it.
func (v *Viewport) SetRaster(rasterW, rasterH float32) {
	v.RasterW = rasterW
	v.RasterH = rasterH
	v.updateMinZoom()
	v.SetZoom(v.Zoom)
	v.clampCenter()
}

// updateMinZoom lets the whole raster fit in the window, but never
// below 1:1 when it already does.
func (v *Viewport) updateMinZoom() {
	v.MinZoom = 1
	if v.RasterW <= 0 || v.RasterH <= 0 {
		return
	}
	fit := min(v.ViewportW/v.RasterW, v.ViewportH/v.RasterH)
	if fit < v.MinZoom {
		v.MinZoom = fit
	}
}

// Pan moves the view by the given delta in window pixels.
func (v *Viewport) Pan(dx, dy float32) {
	v.X += dx / v.Zoom
	v.Y += dy / v.Zoom
	v.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (v *Viewport) SetZoom(zoom float32) {
	v.Zoom = clamp(zoom, v.MinZoom, v.MaxZoom)
	v.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (v *Viewport) ZoomBy(factor float32) {
	v.SetZoom(v.Zoom * factor)
}

// Reset centers the raster at the smallest zoom that is at most 1:1.
func (v *Viewport) Reset() {
	v.X = v.RasterW / 2
	v.Y = v.RasterH / 2
	v.SetZoom(min(1, v.MinZoom))
}

// clampCenter keeps the center inside the raster.
func (v *Viewport) clampCenter() {
	v.X = clamp(v.X, 0, v.RasterW)
	v.Y = clamp(v.Y, 0, v.RasterH)
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
