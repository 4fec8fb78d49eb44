package field

import (
	"fmt"
	"image/color"
	"math"
)

// ColorStrategy selects how a field value becomes a color.
type ColorStrategy uint8

const (
	// HSV cycles the hue with the field value.
	HSV ColorStrategy = iota
	// BitPacked scales the value to an integer and splits it into RGB bytes.
	BitPacked
)

func (s ColorStrategy) String() string {
	switch s {
	case HSV:
		return "hsv"
	case BitPacked:
		return "bitpacked"
	}
	return fmt.Sprintf("ColorStrategy(%d)", s)
}

// ParseColorStrategy parses the configuration name of a color strategy.
func ParseColorStrategy(s string) (ColorStrategy, error) {
	switch s {
	case "", "hsv":
		return HSV, nil
	case "bitpacked", "bit_packed", "rgb":
		return BitPacked, nil
	}
	return HSV, fmt.Errorf("unknown color strategy %q", s)
}

// Palette defaults.
const (
	DefaultDensity    = 1000.0
	DefaultHues       = 360.0
	DefaultSaturation = 1.0
	DefaultBrightness = 1.0
)

// Fixed colors for the overflow sentinel.
var (
	OverflowHSV       = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	OverflowBitPacked = color.RGBA{A: 0xff}
)

// Palette maps field values to colors. It has no hidden state: Color is a
// pure function of the value and the palette fields.
type Palette struct {
	Strategy ColorStrategy
	// Density is how fast the hue cycles (HSV) or the integer zoom (BitPacked).
	Density float64
	// Hues is the number of density units in one full turn of the hue wheel.
	Hues       float64
	Saturation float64 // [0,1]
	Brightness float64 // [0,1]
}

// DefaultPalette returns the full-strength HSV palette.
func DefaultPalette() Palette {
	return Palette{
		Strategy:   HSV,
		Density:    DefaultDensity,
		Hues:       DefaultHues,
		Saturation: DefaultSaturation,
		Brightness: DefaultBrightness,
	}
}

// IsOverflow reports whether v is the overflow sentinel or otherwise
// unrepresentable.
func IsOverflow(v float64) bool {
	return math.IsInf(v, 0) || math.IsNaN(v)
}

// Color maps the field value v to an opaque color.
func (p Palette) Color(v float64) color.RGBA {
	if p.Strategy == BitPacked {
		return p.bitPacked(v)
	}
	return p.hsv(v)
}

func (p Palette) hsv(v float64) color.RGBA {
	if IsOverflow(v) {
		return OverflowHSV
	}
	hues := p.Hues
	if hues <= 0 {
		hues = DefaultHues
	}
	z := v * p.Density
	if IsOverflow(z) {
		return OverflowHSV
	}
	h := math.Mod(z, hues)
	if h < 0 {
		h += hues
	}
	r, g, b := hsvToRGB(h*360/hues, clamp01(p.Saturation), clamp01(p.Brightness))
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// bitPackedRange is the number of distinct 24-bit colors.
const bitPackedRange = 1 << 24

func (p Palette) bitPacked(v float64) color.RGBA {
	if IsOverflow(v) {
		return OverflowBitPacked
	}
	z := math.Round(v * p.Density)
	if IsOverflow(z) {
		return OverflowBitPacked
	}
	z = math.Mod(z, bitPackedRange)
	if z < 0 {
		z += bitPackedRange
	}
	n := uint32(z)
	return color.RGBA{
		R: uint8(n >> 16),
		G: uint8(n >> 8),
		B: uint8(n),
		A: 0xff,
	}
}

// hsvToRGB converts HSV to RGB. h is in degrees [0,360).
func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return to8(r + m), to8(g + m), to8(b + m)
}

func to8(f float64) uint8 {
	return uint8(math.Round(clamp01(f) * 255))
}

func clamp01(f float64) float64 {
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
