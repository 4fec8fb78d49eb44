package viewport

import (
	"math"
	"testing"
)

func TestNewCentersRaster(t *testing.T) {
	vp := New(800, 600, 800, 600)

	if vp.X != 400 || vp.Y != 300 {
		t.Errorf("expected center (400, 300), got (%f, %f)", vp.X, vp.Y)
	}
	if vp.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", vp.Zoom)
	}
	x, y, w, h := vp.Dest()
	if x != 0 || y != 0 || w != 800 || h != 600 {
		t.Errorf("expected raster to fill the window, got %v %v %v %v", x, y, w, h)
	}
}

func TestPixelIdentity(t *testing.T) {
	vp := New(640, 480, 640, 480)

	tests := []struct {
		sx, sy float32
		x, y   int
		inside bool
	}{
		{0, 0, 0, 0, true},
		{10.7, 3.2, 10, 3, true},
		{639.9, 479.9, 639, 479, true},
		{640, 10, 640, 10, false},
		{-0.5, 10, -1, 10, false},
	}
	for _, tc := range tests {
		x, y, inside := vp.Pixel(tc.sx, tc.sy)
		if x != tc.x || y != tc.y || inside != tc.inside {
			t.Errorf("Pixel(%v,%v) = (%d,%d,%v), want (%d,%d,%v)",
				tc.sx, tc.sy, x, y, inside, tc.x, tc.y, tc.inside)
		}
	}
}

func TestSmallRasterIsCentered(t *testing.T) {
	vp := New(800, 600, 400, 200)

	x, y, w, h := vp.Dest()
	if x != 200 || y != 200 || w != 400 || h != 200 {
		t.Errorf("expected centered 400x200 at (200,200), got %v %v %v %v", x, y, w, h)
	}
	if _, _, inside := vp.Pixel(100, 100); inside {
		t.Error("point in the margin should be outside the raster")
	}
}

func TestLargeRasterFits(t *testing.T) {
	vp := New(400, 300, 800, 300)

	if math.Abs(float64(vp.Zoom-0.5)) > 1e-6 {
		t.Errorf("expected fit zoom 0.5, got %f", vp.Zoom)
	}
	// 800x300 at half size is a 400x150 strip centered vertically
	x, y, inside := vp.Pixel(399, 224)
	if !inside || x != 798 || y != 298 {
		t.Errorf("bottom-right maps to (%d,%d,%v)", x, y, inside)
	}
	if _, _, inside := vp.Pixel(200, 10); inside {
		t.Error("point above the strip should be outside the raster")
	}
}

func TestScreenToRasterRoundtrip(t *testing.T) {
	vp := New(1280, 720, 1280, 720)
	vp.ZoomBy(2.5)
	vp.Pan(100, -40)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}
	for _, tc := range testCases {
		rx, ry := vp.ScreenToRaster(tc.sx, tc.sy)
		sx, sy := vp.RasterToScreen(rx, ry)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, rx, ry, sx, sy)
		}
	}
}

func TestZoomClamping(t *testing.T) {
	vp := New(800, 600, 800, 600)

	vp.SetZoom(100)
	if vp.Zoom != vp.MaxZoom {
		t.Errorf("expected zoom clamped to max %f, got %f", vp.MaxZoom, vp.Zoom)
	}
	vp.SetZoom(0.01)
	if vp.Zoom != vp.MinZoom {
		t.Errorf("expected zoom clamped to min %f, got %f", vp.MinZoom, vp.Zoom)
	}
}

func TestPanStaysOnRaster(t *testing.T) {
	vp := New(800, 600, 800, 600)
	vp.Pan(-10000, 10000)
	if vp.X != 0 || vp.Y != 600 {
		t.Errorf("expected center clamped to (0, 600), got (%f, %f)", vp.X, vp.Y)
	}
}

func TestResizeRefits(t *testing.T) {
	vp := New(800, 600, 800, 600)
	vp.Resize(400, 600)
	if math.Abs(float64(vp.MinZoom-0.5)) > 1e-6 || vp.Zoom < vp.MinZoom {
		t.Errorf("expected min zoom 0.5, got %f (zoom %f)", vp.MinZoom, vp.Zoom)
	}

	vp.SetRaster(400, 600)
	vp.Reset()
	if vp.Zoom != 1 {
		t.Errorf("expected 1:1 after matching raster, got %f", vp.Zoom)
	}
}
