// Package view is the interactive window: it shows the engine's canvas,
// turns mouse and keyboard input into charge edits, and draws the HUD.
package view

import (
	"image/color"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/google/uuid"

	"github.com/pthm-cable/fields/config"
	"github.com/pthm-cable/fields/engine"
	"github.com/pthm-cable/fields/field"
	"github.com/pthm-cable/fields/render"
	"github.com/pthm-cable/fields/telemetry"
	"github.com/pthm-cable/fields/ui"
	"github.com/pthm-cable/fields/viewport"
)

// messageTTL is how long a HUD message stays up.
const messageTTL = 2 * time.Second

// View owns the window state. It must be created after rl.InitWindow and
// used from the thread that created the window.
type View struct {
	cfg       *config.Config
	eng       *engine.Engine
	telemetry *telemetry.Collector
	vp        *viewport.Viewport

	tex    rl.Texture2D
	pixels []color.RGBA

	hud      *ui.HUD
	overlays *ui.OverlayRegistry
	palette  *ui.PalettePanel
	perf     *ui.PerfPanel
	controls *ui.ControlsPanel

	screenW, screenH int32

	pressing bool
	pressAt  time.Time
	pressX   float32
	pressY   float32

	scaling int // charge index of an active wheel gesture, -1 when idle

	finished     uuid.UUID
	message      string
	messageUntil time.Time
}

// New creates the view for eng. col may be nil.
func New(cfg *config.Config, eng *engine.Engine, col *telemetry.Collector) *View {
	w, h := eng.Size()
	sw, sh := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())

	v := &View{
		cfg:       cfg,
		eng:       eng,
		telemetry: col,
		vp:        viewport.New(float32(sw), float32(sh), float32(w), float32(h)),
		hud:       ui.NewHUD(),
		overlays:  ui.NewOverlayRegistry(),
		palette: ui.NewPalettePanel(float32(sw)-290, 10, 280, ui.PaletteLimits{
			MinDensity: cfg.Palette.MinDensity,
			MaxDensity: cfg.Palette.MaxDensity,
			MinHues:    cfg.Palette.MinHues,
			MaxHues:    cfg.Palette.MaxHues,
		}),
		perf:     ui.NewPerfPanel(sw-290, 10, 280),
		controls: ui.NewControlsPanel(10, 80, 260),
		screenW:  sw,
		screenH:  sh,
		scaling:  -1,
	}
	v.loadTexture(w, h)
	return v
}

// Start begins the first render. An empty registry is randomised first.
func (v *View) Start() {
	if v.eng.Wallpaper() || v.eng.Registry().Len() == 0 {
		v.eng.Randomise()
	}
	v.eng.Start(v.cfg.Derived.StartDelay)
}

// Run drives the window until it is closed.
func (v *View) Run() {
	v.Start()
	for !rl.WindowShouldClose() {
		v.Update()
		v.Draw()
	}
}

// Update handles input and render events for one frame.
func (v *View) Update() {
	if v.telemetry != nil {
		v.telemetry.RecordFrame()
	}
	v.handleInput()
	v.eng.Drain()

	if ev := v.eng.LastEvent(); ev.Kind == render.EventFinished && ev.RenderID != v.finished {
		v.finished = ev.RenderID
		if !v.eng.Wallpaper() {
			v.notify("Finished")
		}
	}
	if v.eng.TakeDirty() {
		v.upload()
	}
}

// Draw renders the frame.
func (v *View) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	dx, dy, dw, dh := v.vp.Dest()
	rl.DrawTexturePro(
		v.tex,
		rl.Rectangle{X: 0, Y: 0, Width: float32(v.tex.Width), Height: float32(v.tex.Height)},
		rl.Rectangle{X: dx, Y: dy, Width: dw, Height: dh},
		rl.Vector2{},
		0,
		rl.White,
	)

	if v.eng.Wallpaper() {
		rl.EndDrawing()
		return
	}

	if v.overlays.IsEnabled(ui.OverlayMarkers) {
		mouse := rl.GetMousePosition()
		hot := -1
		if x, y, ok := v.vp.Pixel(mouse.X, mouse.Y); ok {
			hot = v.eng.Registry().NearestIndex(x, y)
		}
		if v.scaling >= 0 {
			hot = v.scaling
		}
		ui.DrawChargeMarkers(v.eng.Registry().Snapshot(), hot,
			float32(v.cfg.Charges.SameChargeDistancePx), v.vp.Zoom, v.vp.RasterToScreen)
	}

	v.hud.Draw(v.hudData())
	if v.overlays.IsEnabled(ui.OverlayHelp) {
		v.controls.Draw(ui.DefaultBindings, v.overlays)
	}
	if v.overlays.IsEnabled(ui.OverlayPerf) && v.telemetry != nil {
		v.perf.Draw(v.telemetry.Perf(), v.telemetry.Summary())
	}
	if v.overlays.IsEnabled(ui.OverlayPalette) {
		cur := v.eng.Palette()
		if next, changed := v.palette.Draw(cur); changed {
			slog.Info("palette changed", "strategy", next.Strategy, "density", next.Density, "hues", next.Hues)
			v.eng.SetPalette(next)
		}
	}
	v.hud.DrawControls(v.screenH, "[H] help  [P] palette  [R] random  [S] save")

	rl.EndDrawing()
}

// Unload releases GPU resources and stops the render.
func (v *View) Unload() {
	v.eng.Close()
	rl.UnloadTexture(v.tex)
}

func (v *View) hudData() ui.HUDData {
	w, h := v.eng.Size()
	ev := v.eng.LastEvent()
	d := ui.HUDData{
		Charges:    v.eng.Registry().Len(),
		MaxCharges: v.eng.Registry().Cap(),
		State:      v.eng.Controller().State().String(),
		Resolution: ev.Resolution,
		TopRes:     field.TopResolution(w, h),
		FPS:        rl.GetFPS(),
		Wallpaper:  v.eng.Wallpaper(),
	}
	if time.Now().Before(v.messageUntil) {
		d.Message = v.message
	}
	return d
}

func (v *View) notify(msg string) {
	v.message = msg
	v.messageUntil = time.Now().Add(messageTTL)
}

// loadTexture creates a w x h texture and fills it from the canvas.
func (v *View) loadTexture(w, h int) {
	img := rl.GenImageColor(w, h, rl.Black)
	v.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	v.upload()
}

// upload copies the canvas into the texture.
func (v *View) upload() {
	c := v.eng.Canvas()
	if int32(c.Width()) != v.tex.Width || int32(c.Height()) != v.tex.Height {
		return
	}
	v.pixels = c.RGBA(v.pixels)
	rl.UpdateTexture(v.tex, v.pixels)
}
