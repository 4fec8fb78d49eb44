// Package engine binds a charge registry, a canvas and a render controller
// into the object every front end drives: the window, the HTTP server and
// the headless renderer.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/fields/charges"
	"github.com/pthm-cable/fields/config"
	"github.com/pthm-cable/fields/export"
	"github.com/pthm-cable/fields/field"
	"github.com/pthm-cable/fields/render"
	"github.com/pthm-cable/fields/telemetry"
)

// Options configures an Engine.
type Options struct {
	// Wallpaper renders dimmed random sets back to back.
	Wallpaper bool
	// Scheduler runs render workers. Nil means one goroutine per render.
	Scheduler render.Scheduler
	// Rand drives Randomise. Nil means a time-seeded source.
	Rand *rand.Rand
	// Telemetry, if set, receives pass timings and render records.
	Telemetry *telemetry.Collector
}

// TapResult is the outcome of Tap.
type TapResult uint8

const (
	TapIgnored TapResult = iota // registry full
	TapInverted
	TapAdded
)

func (r TapResult) String() string {
	switch r {
	case TapIgnored:
		return "ignored"
	case TapInverted:
		return "inverted"
	case TapAdded:
		return "added"
	}
	return fmt.Sprintf("TapResult(%d)", r)
}

// renderMeta is what a render record needs that events do not carry.
type renderMeta struct {
	width, height int
	charges       int
	opts          render.Options
}

// Engine owns one registry, one canvas and one controller.
type Engine struct {
	cfg       *config.Config
	reg       *charges.Registry
	ctrl      *render.Controller
	telemetry *telemetry.Collector
	wallpaper bool

	mu      sync.Mutex
	canvas  *Canvas
	opts    render.Options
	rng     *rand.Rand
	pending map[uuid.UUID]renderMeta   // started, not yet ended
	ended   map[uuid.UUID]render.Event // ended before start recorded its meta
	last    render.Event

	dirty atomic.Bool
}

// New creates an engine with a w x h canvas. Charges listed in the
// configuration are added up front.
func New(cfg *config.Config, w, h int, o Options) *Engine {
	rng := o.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	opts := cfg.RenderOptions()
	if o.Wallpaper {
		opts = cfg.WallpaperOptions()
	}

	e := &Engine{
		cfg:       cfg,
		reg:       charges.NewRegistry(cfg.Charges.MaxCharges, cfg.Charges.SameChargeDistancePx),
		ctrl:      render.NewController(o.Scheduler, cfg.Render.EventBuffer),
		telemetry: o.Telemetry,
		wallpaper: o.Wallpaper,
		canvas:    NewCanvas(w, h),
		opts:      opts,
		rng:       rng,
		pending:   make(map[uuid.UUID]renderMeta),
		ended:     make(map[uuid.UUID]render.Event),
	}
	e.ctrl.Bind(e.reg)
	if e.telemetry != nil {
		e.ctrl.SetPassObserver(e.telemetry)
	}
	for _, c := range cfg.Charges.Initial {
		e.reg.AddCharge(c)
	}
	return e
}

// Registry returns the charge registry.
func (e *Engine) Registry() *charges.Registry { return e.reg }

// Controller returns the render controller.
func (e *Engine) Controller() *render.Controller { return e.ctrl }

// Canvas returns the current canvas. It changes on Resize.
func (e *Engine) Canvas() *Canvas {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canvas
}

// Size returns the canvas size.
func (e *Engine) Size() (int, int) {
	c := e.Canvas()
	return c.Width(), c.Height()
}

// Wallpaper reports whether the engine runs in wallpaper mode.
func (e *Engine) Wallpaper() bool { return e.wallpaper }

// FindCharge returns the charge within the pick radius of (x, y).
func (e *Engine) FindCharge(x, y int) (charges.Charge, bool) {
	return e.reg.FindNearest(x, y)
}

// InvertCharge inverts the charge near (x, y) and restarts the render.
func (e *Engine) InvertCharge(x, y int) bool {
	if _, ok := e.reg.InvertNearest(x, y); !ok {
		return false
	}
	e.Restart(0)
	return true
}

// AddCharge adds a charge and restarts the render.
func (e *Engine) AddCharge(x, y int, size float64) bool {
	if !e.reg.Add(x, y, size) {
		return false
	}
	e.Restart(0)
	return true
}

// ScaleCharge multiplies the size of the charge near (x, y). It does not
// restart; callers restart once the gesture ends.
func (e *Engine) ScaleCharge(x, y int, factor float64) (charges.Charge, bool) {
	return e.reg.ScaleNearest(x, y, factor)
}

// Tap inverts the charge near (x, y), or adds one sized by how long the
// press lasted, then restarts.
func (e *Engine) Tap(x, y int, press time.Duration) TapResult {
	if e.InvertCharge(x, y) {
		return TapInverted
	}
	if e.AddCharge(x, y, charges.TapSize(press)) {
		return TapAdded
	}
	return TapIgnored
}

// Clear removes every charge.
func (e *Engine) Clear() {
	e.reg.Clear()
}

// Randomise replaces the charges with a random set inside the canvas.
func (e *Engine) Randomise() int {
	w, h := e.Size()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg.Randomise(e.rng, w, h, e.cfg.RandomOptions())
}

// Start renders the current charges after delay. It does nothing and
// returns false while a render is running.
func (e *Engine) Start(delay time.Duration) (uuid.UUID, bool) {
	return e.start(delay, false)
}

// Restart cancels any running render and starts a new one after delay.
func (e *Engine) Restart(delay time.Duration) (uuid.UUID, bool) {
	return e.start(delay, true)
}

func (e *Engine) start(delay time.Duration, cancel bool) (uuid.UUID, bool) {
	if cancel {
		e.ctrl.Cancel()
	}
	snap := e.reg.Snapshot()

	e.mu.Lock()
	canvas := e.canvas
	opts := e.opts
	e.mu.Unlock()
	opts.StartDelay = delay

	id, ok := e.ctrl.Start(snap, canvas, opts)
	if !ok {
		return id, false
	}
	meta := renderMeta{width: canvas.Width(), height: canvas.Height(), charges: len(snap), opts: opts}
	e.mu.Lock()
	ev, ended := e.ended[id]
	if ended {
		delete(e.ended, id)
	} else {
		e.pending[id] = meta
	}
	e.mu.Unlock()
	if ended {
		e.report(meta, ev)
	}
	e.dirty.Store(true)
	return id, true
}

// Stop cancels the running render.
func (e *Engine) Stop() {
	e.ctrl.Cancel()
}

// IsRendering reports whether a render is running.
func (e *Engine) IsRendering() bool {
	return e.ctrl.IsRendering()
}

// Palette returns the palette used by later renders.
func (e *Engine) Palette() field.Palette {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts.Palette
}

// SetPalette changes the palette and restarts.
func (e *Engine) SetPalette(p field.Palette) {
	e.mu.Lock()
	e.opts.Palette = p
	e.mu.Unlock()
	e.Restart(0)
}

// Resize replaces the canvas with a w x h one showing the old picture
// refitted, and restarts.
func (e *Engine) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	e.mu.Lock()
	old := e.canvas
	e.mu.Unlock()
	if old.Width() == w && old.Height() == h {
		return
	}

	e.ctrl.Cancel()
	next := NewCanvas(w, h)
	if img := export.Refit(old.Image(), w, h); img != nil {
		next = NewCanvasFrom(img)
	}

	e.mu.Lock()
	e.canvas = next
	e.mu.Unlock()
	e.ctrl.SetRaster(next)
	slog.Debug("canvas resized", "width", w, "height", h)
	e.Restart(0)
}

// Save writes the canvas as an image named after now.
func (e *Engine) Save(now time.Time) (string, error) {
	f, err := export.ParseFormat(e.cfg.Export.Format)
	if err != nil {
		return "", err
	}
	path, err := export.Save(e.cfg.Export.Dir, e.cfg.Export.Prefix, f, e.Canvas().Image(), now)
	if err != nil {
		return "", fmt.Errorf("saving canvas: %w", err)
	}
	return path, nil
}

// TakeDirty reports whether the canvas changed since the last call.
func (e *Engine) TakeDirty() bool {
	return e.dirty.Swap(false)
}

// LastEvent returns the most recent event of the current render.
func (e *Engine) LastEvent() render.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Process handles one controller event. Events of superseded renders only
// feed telemetry.
func (e *Engine) Process(ev render.Event) {
	if ev.Kind == render.EventFinished || ev.Kind == render.EventCancelled {
		e.record(ev)
	}
	if ev.RenderID != e.ctrl.Current() {
		return
	}

	e.mu.Lock()
	e.last = ev
	e.mu.Unlock()
	e.dirty.Store(true)

	if ev.Kind == render.EventFinished && e.wallpaper {
		e.Randomise()
		e.Restart(e.cfg.Derived.WallpaperDelay)
	}
}

// Drain processes every pending event without blocking.
func (e *Engine) Drain() {
	for {
		select {
		case ev := <-e.ctrl.Events():
			e.Process(ev)
		default:
			return
		}
	}
}

// Run processes events until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case ev := <-e.ctrl.Events():
			e.Process(ev)
		case <-ctx.Done():
			return
		}
	}
}

// Wait blocks until the current render's worker exits or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	select {
	case <-e.ctrl.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the current render.
func (e *Engine) Close() {
	e.ctrl.Close()
}

func (e *Engine) record(ev render.Event) {
	e.mu.Lock()
	meta, ok := e.pending[ev.RenderID]
	if ok {
		delete(e.pending, ev.RenderID)
	} else {
		e.ended[ev.RenderID] = ev
	}
	e.mu.Unlock()
	if ok {
		e.report(meta, ev)
	}
}

func (e *Engine) report(meta renderMeta, ev render.Event) {
	if e.telemetry == nil {
		return
	}
	e.telemetry.RecordRender(ev.RenderID, telemetry.RenderRecord{
		Width:     meta.width,
		Height:    meta.height,
		Charges:   meta.charges,
		Evaluator: meta.opts.Evaluator.Kind.String(),
		Strategy:  meta.opts.Palette.Strategy.String(),
		Density:   meta.opts.Palette.Density,
		Completed: ev.Stats.Completed,
		Blocks:    ev.Stats.Blocks,
		Passes:    ev.Stats.Passes,
		ElapsedMS: float64(ev.Elapsed) / float64(time.Millisecond),
	})
}
