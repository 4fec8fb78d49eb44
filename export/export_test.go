package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 10), uint8(y * 10), 7, 255})
		}
	}
	return img
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 2, 0, time.UTC)
	if got := FileName(DefaultPrefix, ts, PNG); got != "ef-20240309-070502.png" {
		t.Errorf("FileName = %q", got)
	}
	if got := FileName("x", ts, TIFF); got != "x20240309-070502.tiff" {
		t.Errorf("FileName = %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", PNG, false},
		{"png", PNG, false},
		{"bmp", BMP, false},
		{"tif", TIFF, false},
		{"gif", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	src := gradient(9, 6)
	decoders := map[Format]func(*bytes.Reader) (image.Image, error){
		PNG:  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
		BMP:  func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) },
		TIFF: func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) },
	}
	for f, decode := range decoders {
		var buf bytes.Buffer
		if err := Encode(&buf, src, f); err != nil {
			t.Fatalf("%s: encode: %v", f, err)
		}
		img, err := decode(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("%s: decode: %v", f, err)
		}
		for y := 0; y < 6; y++ {
			for x := 0; x < 9; x++ {
				r1, g1, b1, _ := img.At(x, y).RGBA()
				r2, g2, b2, _ := src.At(x, y).RGBA()
				if r1 != r2 || g1 != g2 || b1 != b2 {
					t.Fatalf("%s: pixel (%d,%d) differs", f, x, y)
				}
			}
		}
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	ts := time.Date(2025, 12, 31, 23, 59, 58, 0, time.UTC)
	path, err := Save(dir, DefaultPrefix, PNG, gradient(4, 4), ts)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "ef-20251231-235958.png" {
		t.Errorf("unexpected path %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("saved file is not a png: %v", err)
	}
}

func TestRotate(t *testing.T) {
	src := gradient(3, 2)

	cw := RotateCW(src)
	if cw.Bounds().Dx() != 2 || cw.Bounds().Dy() != 3 {
		t.Fatalf("cw bounds %v", cw.Bounds())
	}
	// Top-left goes to top-right when turning clockwise
	if cw.RGBAAt(1, 0) != src.RGBAAt(0, 0) {
		t.Errorf("cw (1,0) = %v, want %v", cw.RGBAAt(1, 0), src.RGBAAt(0, 0))
	}
	if cw.RGBAAt(0, 2) != src.RGBAAt(2, 1) {
		t.Errorf("cw (0,2) = %v, want %v", cw.RGBAAt(0, 2), src.RGBAAt(2, 1))
	}

	ccw := RotateCCW(src)
	// Top-left goes to bottom-left when turning counter-clockwise
	if ccw.RGBAAt(0, 2) != src.RGBAAt(0, 0) {
		t.Errorf("ccw (0,2) = %v, want %v", ccw.RGBAAt(0, 2), src.RGBAAt(0, 0))
	}

	back := RotateCCW(cw)
	if !bytes.Equal(back.Pix, src.Pix) {
		t.Error("cw then ccw is not the identity")
	}
}

func TestRefit(t *testing.T) {
	land := gradient(8, 4)

	if got := Refit(land, 16, 8); got.Bounds() != image.Rect(0, 0, 16, 8) {
		t.Errorf("same orientation bounds %v", got.Bounds())
	}
	if got := Refit(land, 4, 8); got.Bounds() != image.Rect(0, 0, 4, 8) {
		t.Errorf("rotated bounds %v", got.Bounds())
	}
	// Same size and orientation keeps the picture
	same := Refit(land, 8, 4)
	if same.RGBAAt(3, 2) != land.RGBAAt(3, 2) {
		t.Errorf("identity refit changed pixel: %v vs %v", same.RGBAAt(3, 2), land.RGBAAt(3, 2))
	}
	if Refit(nil, 4, 4) != nil {
		t.Error("expected nil for no previous raster")
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"field.png", PNG},
		{"out/FIELD.BMP", BMP},
		{"a.tif", TIFF},
		{"noext", PNG},
	}
	for _, tc := range tests {
		got, err := FormatOf(tc.path)
		if err != nil || got != tc.want {
			t.Errorf("FormatOf(%q) = %q, %v; want %q", tc.path, got, err, tc.want)
		}
	}
	if _, err := FormatOf("x.gif"); err == nil {
		t.Error("expected error for gif")
	}
}
