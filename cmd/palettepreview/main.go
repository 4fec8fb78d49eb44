// Palette preview tool - renders a fixed charge layout with sliders for the
// color mapping, and prints the matching palette config.
//
// Usage: go run ./cmd/palettepreview
package main

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/fields/charges"
	"github.com/pthm-cable/fields/config"
	"github.com/pthm-cable/fields/field"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	stripHeight  = 40
	panelWidth   = windowWidth - previewSize - 30
)

// sample is the charge layout every preview renders.
var sample = []charges.Charge{
	{X: 128, Y: 140, Size: 6},
	{X: 380, Y: 120, Size: -4},
	{X: 256, Y: 300, Size: 12},
	{X: 90, Y: 420, Size: -9},
	{X: 420, Y: 430, Size: 3},
}

func main() {
	config.MustInit("")
	cfg := config.Cfg()

	rl.InitWindow(windowWidth, windowHeight, "Palette Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	defaults := cfg.FieldPalette()
	p := defaults
	kind := cfg.Derived.EvaluatorKind

	raster := field.NewImageRaster(previewSize, previewSize)
	img := rl.GenImageColor(previewSize, previewSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	stripImg := rl.GenImageColor(previewSize, 1, rl.Black)
	strip := rl.LoadTextureFromImage(stripImg)
	rl.UnloadImage(stripImg)
	defer rl.UnloadTexture(strip)

	pixels := make([]color.RGBA, previewSize*previewSize)
	stripPixels := make([]color.RGBA, previewSize)
	needsRegen := true
	var stats field.FillStats

	for !rl.WindowShouldClose() {
		if needsRegen {
			f := field.Filler{Evaluator: field.NewEvaluator(kind), Palette: p}
			stats = f.Fill(raster, field.Sources(sample), nil)
			copyPixels(pixels, raster)
			rl.UpdateTexture(texture, pixels)
			gradient(stripPixels, p)
			rl.UpdateTexture(strip, stripPixels)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexture(texture, 10, 10, rl.White)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)
		rl.DrawTexturePro(
			strip,
			rl.Rectangle{X: 0, Y: 0, Width: previewSize, Height: 1},
			rl.Rectangle{X: 10, Y: previewSize + 20, Width: previewSize, Height: stripHeight},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawText("potential 0 .. 1 (baseline)", 15, previewSize+stripHeight+25, 14, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Blocks: %d  Passes: %d  Evaluator: %s", stats.Blocks, stats.Passes, kind),
			15, previewSize+stripHeight+45, 16, rl.DarkGray)

		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Palette Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		newDensity := slider(panelX, &panelY, "Density (hue cycles per unit potential)",
			p.Density, cfg.Palette.MinDensity, cfg.Palette.MaxDensity, "%.0f")
		newHues := slider(panelX, &panelY, "Hues (density units per turn)",
			p.Hues, cfg.Palette.MinHues, cfg.Palette.MaxHues, "%.0f")
		newSat := slider(panelX, &panelY, "Saturation", p.Saturation, 0, 1, "%.2f")
		newBright := slider(panelX, &panelY, "Brightness", p.Brightness, 0, 1, "%.2f")
		if newDensity != p.Density || newHues != p.Hues || newSat != p.Saturation || newBright != p.Brightness {
			p.Density, p.Hues, p.Saturation, p.Brightness = newDensity, newHues, newSat, newBright
			needsRegen = true
		}
		panelY += 10

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Colors: "+p.Strategy.String()) {
			p.Strategy = toggle(p.Strategy == field.HSV, field.BitPacked, field.HSV)
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Potential: "+kind.String()) {
			kind = toggle(kind == field.Linear, field.InverseSquare, field.Linear)
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Wallpaper") {
			p.Saturation = cfg.Wallpaper.Saturation
			p.Brightness = cfg.Wallpaper.Brightness
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			p = defaults
			kind = cfg.Derived.EvaluatorKind
			needsRegen = true
		}
		panelY += 55

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		text := paletteYAML(p, kind)
		for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(text)
		}

		rl.EndDrawing()
	}
}

// slider draws a labelled slider at (x, *y), advances *y and returns the value.
func slider(x float32, y *float32, label string, value, lo, hi float64, format string) float64 {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: float32(panelWidth - 80), Height: 20},
		fmt.Sprintf(format, lo), fmt.Sprintf(format, hi),
		float32(value), float32(lo), float32(hi),
	)
	rl.DrawText(fmt.Sprintf(format, v), int32(x+float32(panelWidth-70)), int32(*y+2), 16, rl.DarkGray)
	*y += 35
	if v == float32(value) {
		return value
	}
	return float64(v)
}

func toggle[T any](cond bool, ifTrue, ifFalse T) T {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// gradient samples the palette across [0, baseline].
func gradient(dst []color.RGBA, p field.Palette) {
	n := len(dst)
	for i := range dst {
		dst[i] = p.Color(field.DefaultBaseline * float64(i) / float64(n))
	}
}

func copyPixels(dst []color.RGBA, r *field.ImageRaster) {
	pix := r.Img.Pix
	for i := range dst {
		dst[i] = color.RGBA{R: pix[i*4], G: pix[i*4+1], B: pix[i*4+2], A: pix[i*4+3]}
	}
}

// paletteYAML renders the config sections a user file needs for p.
func paletteYAML(p field.Palette, kind field.EvaluatorKind) string {
	doc := struct {
		Field   map[string]any `yaml:"field"`
		Palette map[string]any `yaml:"palette"`
	}{
		Field: map[string]any{"evaluator_kind": kind.String()},
		Palette: map[string]any{
			"color_strategy": p.Strategy.String(),
			"density":        round(p.Density, 0),
			"hues":           round(p.Hues, 0),
			"saturation":     round(p.Saturation, 2),
			"brightness":     round(p.Brightness, 2),
		},
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		slog.Error("marshal palette", "error", err)
		os.Exit(1)
	}
	return string(out)
}

func round(v float64, places int) float64 {
	scale := 1.0
	for range places {
		scale *= 10
	}
	return float64(int64(v*scale+0.5)) / scale
}
