package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fields/field"
)

// PaletteLimits bounds the palette sliders.
type PaletteLimits struct {
	MinDensity, MaxDensity float64
	MinHues, MaxHues       float64
}

// PalettePanel edits a palette with sliders. Edits are held back while a
// slider is dragged so the field is re-rendered once per gesture.
type PalettePanel struct {
	renderer *Renderer
	limits   PaletteLimits
	x, y     float32
	width    float32

	edit    field.Palette
	editing bool
}

const (
	paletteRow    = 40
	paletteHeight = 7*paletteRow + 20
)

// NewPalettePanel creates a panel anchored at (x, y).
func NewPalettePanel(x, y, width float32, limits PaletteLimits) *PalettePanel {
	return &PalettePanel{renderer: NewRenderer(), limits: limits, x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *PalettePanel) SetPosition(x, y float32) {
	p.x = x
	p.y = y
}

// Contains reports whether the window point lies on the panel.
func (p *PalettePanel) Contains(x, y float32) bool {
	return x >= p.x && x < p.x+p.width && y >= p.y && y < p.y+paletteHeight
}

// Draw renders the panel for current and returns the palette to apply and
// whether it differs from current. Nothing is applied while the mouse
// button is held.
func (p *PalettePanel) Draw(current field.Palette) (field.Palette, bool) {
	if !p.editing {
		p.edit = current
	}
	r := p.renderer
	pad := float32(r.Theme.Padding)
	r.DrawPanel(int32(p.x), int32(p.y), int32(p.width), paletteHeight)

	x := p.x + pad
	y := p.y + pad
	sliderW := p.width - 2*pad - 60
	r.DrawSectionHeader(int32(x), int32(y), "Palette")
	y += 24

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: sliderW, Height: 24}, "Colors: "+p.edit.Strategy.String()) {
		if p.edit.Strategy == field.HSV {
			p.edit.Strategy = field.BitPacked
		} else {
			p.edit.Strategy = field.HSV
		}
	}
	y += paletteRow

	p.edit.Density = p.slider(x, y, sliderW, "Density", p.edit.Density, p.limits.MinDensity, p.limits.MaxDensity, "%.0f")
	y += paletteRow
	p.edit.Hues = p.slider(x, y, sliderW, "Hues", p.edit.Hues, p.limits.MinHues, p.limits.MaxHues, "%.0f")
	y += paletteRow
	p.edit.Saturation = p.slider(x, y, sliderW, "Saturation", p.edit.Saturation, 0, 1, "%.2f")
	y += paletteRow
	p.edit.Brightness = p.slider(x, y, sliderW, "Brightness", p.edit.Brightness, 0, 1, "%.2f")
	y += paletteRow

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: sliderW, Height: 24}, "Defaults") {
		p.edit = field.DefaultPalette()
	}

	mouse := rl.GetMousePosition()
	p.editing = rl.IsMouseButtonDown(rl.MouseButtonLeft) && p.Contains(mouse.X, mouse.Y)
	if p.editing {
		return current, false
	}
	return p.edit, p.edit != current
}

func (p *PalettePanel) slider(x, y, w float32, label string, value, lo, hi float64, format string) float64 {
	rl.DrawText(label, int32(x), int32(y), p.renderer.Theme.FontSize, p.renderer.Theme.LabelColor)
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: y + 14, Width: w, Height: 16},
		"", "",
		float32(value), float32(lo), float32(hi),
	)
	rl.DrawText(fmt.Sprintf(format, v), int32(x+w+8), int32(y+14), p.renderer.Theme.FontSize, p.renderer.Theme.ValueColor)
	if float64(v) == float64(float32(value)) {
		return value
	}
	return float64(v)
}
