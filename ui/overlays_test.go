package ui

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestOverlayToggle(t *testing.T) {
	r := NewOverlayRegistry()
	if r.IsEnabled(OverlayMarkers) {
		t.Fatal("overlays should start disabled")
	}
	if !r.Toggle(OverlayMarkers) || !r.IsEnabled(OverlayMarkers) {
		t.Error("expected markers enabled")
	}
	if r.Toggle(OverlayMarkers) || r.IsEnabled(OverlayMarkers) {
		t.Error("expected markers disabled")
	}
	if r.Toggle("missing") {
		t.Error("unknown overlay toggled")
	}
}

func TestOverlayExclusive(t *testing.T) {
	r := NewOverlayRegistry()
	r.SetEnabled(OverlayPalette, true)
	r.Toggle(OverlayPerf)
	if r.IsEnabled(OverlayPalette) {
		t.Error("enabling perf should hide the palette panel")
	}
	r.SetEnabled(OverlayPalette, true)
	if r.IsEnabled(OverlayPerf) {
		t.Error("enabling palette should hide the perf panel")
	}
	r.SetEnabled(OverlayPalette, false)
	if r.IsEnabled(OverlayPerf) {
		t.Error("disabling must not re-enable others")
	}
}

func TestOverlayHandleKeyPress(t *testing.T) {
	r := NewOverlayRegistry()
	id, on, ok := r.HandleKeyPress(rl.KeyH)
	if !ok || id != OverlayHelp || !on {
		t.Errorf("H = (%s, %v, %v), want help on", id, on, ok)
	}
	if _, _, ok := r.HandleKeyPress(rl.KeyZ); ok {
		t.Error("unbound key toggled an overlay")
	}
	if got := len(r.Keys()); got != 4 {
		t.Errorf("expected 4 bound keys, got %d", got)
	}
}

func TestOverlayCategories(t *testing.T) {
	r := NewOverlayRegistry()
	cats := r.Categories()
	if len(cats) != 2 || cats[0] != "view" || cats[1] != "debug" {
		t.Errorf("categories = %v", cats)
	}
	if n := len(r.ByCategory("view")); n != 2 {
		t.Errorf("expected 2 view overlays, got %d", n)
	}
}
