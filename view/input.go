package view

import (
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fields/ui"
)

// handleInput processes window, mouse and keyboard input.
func (v *View) handleInput() {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if v.eng.Wallpaper() {
		return
	}

	v.handleMenuKeys()
	for _, key := range v.overlays.Keys() {
		if rl.IsKeyPressed(key) {
			id, on, _ := v.overlays.HandleKeyPress(key)
			slog.Debug("overlay toggled", "overlay", id, "enabled", on)
		}
	}
	v.handleViewportKeys()
	v.handlePointer()
	v.handleWheel()
}

// handleResize resizes the canvas to the window and re-renders.
func (v *View) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := int32(rl.GetScreenWidth())
	h := int32(rl.GetScreenHeight())
	if w == v.screenW && h == v.screenH {
		return
	}
	v.screenW, v.screenH = w, h

	v.eng.Resize(int(w), int(h))
	rl.UnloadTexture(v.tex)
	v.loadTexture(int(w), int(h))

	v.vp.SetRaster(float32(w), float32(h))
	v.vp.Resize(float32(w), float32(h))
	v.vp.Reset()
	v.palette.SetPosition(float32(w)-290, 10)
	v.perf.SetPosition(w-290, 10)
	slog.Info("window resized", "width", w, "height", h)
}

func (v *View) handleMenuKeys() {
	switch {
	case rl.IsKeyPressed(rl.KeyR):
		n := v.eng.Randomise()
		v.eng.Restart(0)
		slog.Info("charges randomised", "count", n)
	case rl.IsKeyPressed(rl.KeyS):
		path, err := v.eng.Save(time.Now())
		if err != nil {
			slog.Error("save failed", "error", err)
			v.notify("Save failed")
			return
		}
		slog.Info("image saved", "path", path)
		v.notify("Saved " + path)
	case rl.IsKeyPressed(rl.KeySpace):
		v.eng.Stop()
		v.eng.Clear()
		v.notify("Stopped")
	case rl.IsKeyPressed(rl.KeyC):
		v.eng.Clear()
	}
}

// handleViewportKeys processes pan and zoom controls.
func (v *View) handleViewportKeys() {
	panSpeed := float32(8.0)
	if rl.IsKeyDown(rl.KeyRight) {
		v.vp.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.vp.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.vp.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.vp.Pan(0, -panSpeed)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.vp.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.vp.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.vp.Reset()
	}
}

// handlePointer turns a click into a tap. The press length sizes new
// charges.
func (v *View) handlePointer() {
	mouse := rl.GetMousePosition()
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		if v.overPanel(mouse.X, mouse.Y) {
			return
		}
		v.pressing = true
		v.pressAt = time.Now()
		v.pressX, v.pressY = mouse.X, mouse.Y
	}
	if !v.pressing || !rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		return
	}
	v.pressing = false

	x, y, ok := v.vp.Pixel(v.pressX, v.pressY)
	if !ok {
		return
	}
	press := time.Since(v.pressAt)
	res := v.eng.Tap(x, y, press)
	slog.Debug("tap", "x", x, "y", y, "press", press, "result", res)
}

// handleWheel scales the charge under the cursor, or zooms when there is
// none. The render restarts once the wheel has been still for a frame.
func (v *View) handleWheel() {
	wheel := rl.GetMouseWheelMove()
	if wheel == 0 {
		if v.scaling >= 0 {
			v.scaling = -1
			v.eng.Restart(0)
		}
		return
	}

	if v.scaling < 0 {
		mouse := rl.GetMousePosition()
		if x, y, ok := v.vp.Pixel(mouse.X, mouse.Y); ok {
			v.scaling = v.eng.Registry().NearestIndex(x, y)
		}
	}
	if v.scaling < 0 {
		v.vp.ZoomBy(1 + wheel*0.1)
		return
	}

	factor := 1 + v.cfg.Charges.WheelScaleStep*float64(wheel)
	if factor <= 0 {
		return
	}
	if c, ok := v.eng.Registry().ScaleAt(v.scaling, factor); ok {
		slog.Debug("charge scaled", "charge", c)
	}
}

func (v *View) overPanel(x, y float32) bool {
	return v.overlays.IsEnabled(ui.OverlayPalette) && v.palette.Contains(x, y)
}
