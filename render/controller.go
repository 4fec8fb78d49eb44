// Package render runs field renders on a background worker and reports
// their lifecycle.
//
// At most one render is current. Starting a new render while the current one
// is running is a no-op unless the current one has been asked to cancel;
// Restart does exactly that. A new render waits for the render it superseded
// to exit before it paints, so the raster only ever has one writer.
package render

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/fields/charges"
	"github.com/pthm-cable/fields/field"
)

// State is the lifecycle state of a render.
type State uint8

const (
	Idle State = iota
	Running
	Finished
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("State(%d)", s)
}

// ChargeSource provides the charges for a restart.
type ChargeSource interface {
	Snapshot() []charges.Charge
}

type clearer interface {
	Clear()
}

// DefaultEventBuffer is the event channel capacity used when NewController
// is given a non-positive size.
const DefaultEventBuffer = 64

type job struct {
	id     uuid.UUID
	state  State // guarded by Controller.mu
	cancel atomic.Bool

	stop     chan struct{} // closed on cancel; interrupts the start delay
	stopOnce sync.Once
	done     chan struct{} // closed when the worker returns
}

func newJob() *job {
	return &job{
		id:   uuid.New(),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (j *job) requestCancel() {
	j.cancel.Store(true)
	j.stopOnce.Do(func() { close(j.stop) })
}

// Controller owns the current render.
type Controller struct {
	sched  Scheduler
	events chan Event
	quit   chan struct{}
	closed sync.Once

	mu       sync.Mutex
	cur      *job
	source   ChargeSource
	raster   field.Raster
	opts     Options
	observer PassObserver
}

// NewController creates a controller that runs workers through sched
// (GoScheduler when nil) and buffers up to buffer events.
func NewController(sched Scheduler, buffer int) *Controller {
	if sched == nil {
		sched = GoScheduler{}
	}
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &Controller{
		sched:  sched,
		events: make(chan Event, buffer),
		quit:   make(chan struct{}),
	}
}

// Bind sets the source Restart takes its snapshot from.
func (c *Controller) Bind(src ChargeSource) {
	c.mu.Lock()
	c.source = src
	c.mu.Unlock()
}

// SetPassObserver registers o for pass timings of later renders.
func (c *Controller) SetPassObserver(o PassObserver) {
	c.mu.Lock()
	c.observer = o
	c.mu.Unlock()
}

// Events returns the notification channel. Progress events are dropped when
// the channel is nearly full; lifecycle events are not.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Start begins rendering snapshot into r. It returns false without doing
// anything when the current render is running and has not been cancelled.
func (c *Controller) Start(snapshot []charges.Charge, r field.Raster, opts Options) (uuid.UUID, bool) {
	return c.start(snapshot, r, opts, opts)
}

// start runs with opts and remembers keep for later restarts.
func (c *Controller) start(snapshot []charges.Charge, r field.Raster, opts, keep Options) (uuid.UUID, bool) {
	c.mu.Lock()
	prev := c.cur
	if prev != nil && prev.state == Running && !prev.cancel.Load() {
		c.mu.Unlock()
		Logger().Warn("render already running", "render_id", prev.id)
		return uuid.Nil, false
	}
	j := newJob()
	j.state = Running
	c.cur = j
	c.raster = r
	c.opts = keep
	observer := c.observer
	c.mu.Unlock()

	snap := slices.Clone(snapshot)
	c.sched.Go(func() { c.run(j, prev, snap, r, opts, observer) })
	return j.id, true
}

// Restart cancels the current render and starts a new one from a fresh
// snapshot of the bound source, reusing the last raster and options.
// It returns false when there is nothing to restart from.
func (c *Controller) Restart() (uuid.UUID, bool) {
	return c.restart(-1)
}

// RestartAfter is Restart with the given start delay. The delay applies to
// this render only.
func (c *Controller) RestartAfter(delay time.Duration) (uuid.UUID, bool) {
	return c.restart(delay)
}

func (c *Controller) restart(delay time.Duration) (uuid.UUID, bool) {
	c.mu.Lock()
	src, r, keep := c.source, c.raster, c.opts
	c.mu.Unlock()
	if src == nil || r == nil {
		return uuid.Nil, false
	}
	opts := keep
	if delay >= 0 {
		opts.StartDelay = delay
	}
	c.Cancel()
	return c.start(src.Snapshot(), r, opts, keep)
}

// UpdateOptions replaces the options used by later restarts.
func (c *Controller) UpdateOptions(fn func(*Options)) {
	c.mu.Lock()
	fn(&c.opts)
	c.mu.Unlock()
}

// Options returns the options of the most recent start.
func (c *Controller) Options() Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts
}

// SetRaster replaces the raster used by later restarts.
func (c *Controller) SetRaster(r field.Raster) {
	c.mu.Lock()
	c.raster = r
	c.mu.Unlock()
}

// Cancel asks the current render to stop. The worker stops before its next
// block and emits EventCancelled.
func (c *Controller) Cancel() {
	c.mu.Lock()
	j := c.cur
	c.mu.Unlock()
	if j != nil {
		j.requestCancel()
	}
}

// IsRendering reports whether the current render is running.
func (c *Controller) IsRendering() bool {
	return c.State() == Running
}

// State returns the state of the current render.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return Idle
	}
	return c.cur.state
}

// Current returns the id of the current render, or uuid.Nil before the
// first start.
func (c *Controller) Current() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return uuid.Nil
	}
	return c.cur.id
}

// Done returns a channel closed when the current render's worker exits.
// Before the first start it returns a closed channel.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.cur.done
}

// Close cancels the current render and unblocks a worker waiting to deliver
// an event nobody will read.
func (c *Controller) Close() {
	c.Cancel()
	c.closed.Do(func() { close(c.quit) })
}

func (c *Controller) run(j *job, prev *job, snap []charges.Charge, r field.Raster, opts Options, observer PassObserver) {
	defer close(j.done)
	if prev != nil {
		<-prev.done
	}

	log := Logger().With("render_id", j.id)
	c.send(Event{Kind: EventStarted, RenderID: j.id})
	log.Debug("render started", "charges", len(snap), "delay", opts.StartDelay)

	if opts.StartDelay > 0 {
		t := time.NewTimer(opts.StartDelay)
		select {
		case <-t.C:
		case <-j.stop:
			t.Stop()
		}
	}

	f := field.Filler{
		Evaluator: opts.Evaluator,
		Palette:   opts.Palette,
		Repaint:   opts.Repaint,
		OnProgress: func(p field.Progress) {
			c.notify(Event{Kind: EventProgress, RenderID: j.id, Resolution: p.Resolution, Row: p.Row})
		},
	}
	if observer != nil {
		f.OnPass = func(res int, elapsed time.Duration) {
			observer.ObservePass(j.id, res, elapsed)
		}
	}

	start := time.Now()
	st := f.Fill(r, field.Sources(snap), j.cancel.Load)
	elapsed := time.Since(start)

	state, kind := Cancelled, EventCancelled
	if st.Completed {
		state, kind = Finished, EventFinished
	}

	c.mu.Lock()
	j.state = state
	clearSource := st.Completed && opts.ClearOnFinish && c.cur == j
	src := c.source
	c.mu.Unlock()

	if clearSource {
		if cl, ok := src.(clearer); ok {
			cl.Clear()
		}
	}

	log.Debug("render ended", "state", state, "blocks", st.Blocks, "passes", st.Passes, "elapsed", elapsed)
	c.send(Event{Kind: kind, RenderID: j.id, Stats: st, Elapsed: elapsed})
}

// send delivers a lifecycle event.
func (c *Controller) send(ev Event) {
	select {
	case c.events <- ev:
	case <-c.quit:
	}
}

// notify delivers a progress hint without blocking. One slot is kept free
// for the lifecycle event that ends the render.
func (c *Controller) notify(ev Event) {
	if len(c.events) >= cap(c.events)-1 {
		return
	}
	select {
	case c.events <- ev:
	default:
	}
}
