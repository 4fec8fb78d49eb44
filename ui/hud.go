package ui

import (
	"fmt"
	"sort"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fields/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Charges    int
	MaxCharges int
	State      string
	Resolution int // block size of the pass being painted; 0 when unknown
	TopRes     int
	FPS        int32
	Wallpaper  bool
	Message    string
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(
		fmt.Sprintf("Charges: %d/%d | %s | FPS: %d", data.Charges, data.MaxCharges, data.State, data.FPS),
		10, 10, 16, rl.RayWhite,
	)
	y := int32(30)
	if data.State == "running" && data.TopRes > 0 && data.Resolution > 0 {
		h.renderer.DrawBar(10, y, "Detail", passProgress(data.Resolution, data.TopRes), 260)
		y += h.renderer.Theme.LineHeight + 2
	}
	if data.Wallpaper {
		rl.DrawText("Wallpaper", 10, y, 16, rl.Yellow)
		y += 20
	}
	if data.Message != "" {
		rl.DrawText(data.Message, 10, y, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// passProgress maps the current block size onto [0, 1]: the first pass is 0
// and the single-pixel pass is 1.
func passProgress(res, top int) float32 {
	passes, done := 0, 0
	for r := top; r >= 1; r >>= 1 {
		passes++
		if r > res {
			done++
		}
	}
	if passes <= 1 {
		return 1
	}
	return float32(done) / float32(passes-1)
}

// PerfPanel renders the render timing breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats, summary telemetry.Summary) {
	r := p.renderer
	padding := r.Theme.Padding

	sizes := make([]int, 0, len(stats.PassAvg))
	for res := range stats.PassAvg {
		sizes = append(sizes, res)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))

	height := int32(len(sizes)+7)*r.Theme.LineHeight + padding*2
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + padding
	y := r.DrawSectionHeader(x, p.y+padding, "Render Timing")
	y = r.DrawLabelValue(x, y, "Renders", fmt.Sprintf("%d (%d cancelled)", summary.Renders, summary.Cancelled))
	y = r.DrawLabelValue(x, y, "Average", stats.AvgRenderDuration.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "Min / Max", fmt.Sprintf("%s / %s",
		stats.MinRenderDuration.Round(time.Microsecond), stats.MaxRenderDuration.Round(time.Microsecond)))
	y = r.DrawLabelValue(x, y, "Blocks/ms", fmt.Sprintf("%.1f", summary.BlocksPerMS))
	y += 4

	for _, res := range sizes {
		pct := stats.PassPct[res]
		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%4dpx %10s %5.1f%%", res, stats.PassAvg[res].Round(time.Microsecond), pct),
			x, y, r.Theme.FontSize, color,
		)
		y += r.Theme.LineHeight
	}
}
