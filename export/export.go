// Package export writes rendered rasters to image files.
package export

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format is an image file format.
type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// ParseFormat parses a format name. The empty string is PNG.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	case "tiff", "tif":
		return TIFF, nil
	}
	return "", fmt.Errorf("unknown image format %q", s)
}

// FormatOf picks the format from a file name's extension.
func FormatOf(path string) (Format, error) {
	return ParseFormat(strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")))
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// ContentType returns the MIME type.
func (f Format) ContentType() string {
	return "image/" + string(f)
}

// DefaultPrefix starts every exported file name.
const DefaultPrefix = "ef-"

// FileName returns prefix + yyyyMMdd-HHmmss + extension for t.
func FileName(prefix string, t time.Time, f Format) string {
	return prefix + t.Format("20060102-150405") + f.Ext()
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG, "":
		return png.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}
	return fmt.Errorf("unknown image format %q", string(f))
}

// Save writes img into dir under a time-stamped name and returns the path.
func Save(dir, prefix string, f Format, img image.Image, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, FileName(prefix, now, f))
	if err := WriteFile(path, img, f); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile encodes img to path.
func WriteFile(path string, img image.Image, f Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	w := bufio.NewWriter(file)
	if err := Encode(w, img, f); err != nil {
		file.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
