package render

import (
	"bytes"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/fields/charges"
	"github.com/pthm-cable/fields/field"
)

type countingRaster struct {
	mu   sync.Mutex
	w, h int
	n    int
}

func (r *countingRaster) Width() int  { return r.w }
func (r *countingRaster) Height() int { return r.h }
func (r *countingRaster) FillBlock(x, y, w, h int, c color.RGBA) {
	r.mu.Lock()
	r.n++
	r.mu.Unlock()
}

func (r *countingRaster) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

type passCounter struct {
	mu     sync.Mutex
	passes map[uuid.UUID]int
}

func (p *passCounter) ObservePass(id uuid.UUID, resolution int, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.passes == nil {
		p.passes = make(map[uuid.UUID]int)
	}
	p.passes[id]++
}

func testCharges() []charges.Charge {
	return []charges.Charge{{X: 4, Y: 9, Size: 2}, {X: 20, Y: 3, Size: -1}}
}

func drain(c *Controller) []Event {
	var out []Event
	for {
		select {
		case ev := <-c.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

// waitFor reads events until one of kind for id arrives.
func waitFor(t *testing.T, c *Controller, id uuid.UUID, kind EventKind) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-c.Events():
			if ev.RenderID == id && ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s of %s", kind, id)
		}
	}
}

func TestStartInlineFinishes(t *testing.T) {
	c := NewController(InlineScheduler{}, 0)
	r := field.NewImageRaster(32, 24)
	opts := DefaultOptions()

	id, ok := c.Start(testCharges(), r, opts)
	if !ok {
		t.Fatal("expected start to succeed")
	}
	if c.State() != Finished || c.IsRendering() {
		t.Errorf("expected finished, got %s", c.State())
	}
	if c.Current() != id {
		t.Errorf("current = %s, want %s", c.Current(), id)
	}

	events := drain(c)
	if len(events) < 2 {
		t.Fatalf("expected at least 2 events, got %d", len(events))
	}
	if events[0].Kind != EventStarted {
		t.Errorf("first event = %s, want started", events[0].Kind)
	}
	last := events[len(events)-1]
	if last.Kind != EventFinished || !last.Stats.Completed {
		t.Errorf("last event = %+v, want completed finish", last)
	}
	for _, ev := range events {
		if ev.RenderID != id {
			t.Errorf("event %s carries id %s, want %s", ev.Kind, ev.RenderID, id)
		}
	}

	want := field.NewImageRaster(32, 24)
	f := field.Filler{Evaluator: opts.Evaluator, Palette: opts.Palette}
	f.Fill(want, field.Sources(testCharges()), nil)
	if !bytes.Equal(r.Img.Pix, want.Img.Pix) {
		t.Error("controller render differs from a direct fill")
	}
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	c := NewController(GoScheduler{}, 0)
	defer c.Close()
	r := &countingRaster{w: 16, h: 16}

	slow := DefaultOptions()
	slow.StartDelay = time.Hour
	first, ok := c.Start(testCharges(), r, slow)
	if !ok {
		t.Fatal("expected first start to succeed")
	}

	if _, ok := c.Start(testCharges(), r, DefaultOptions()); ok {
		t.Fatal("expected second start to be a no-op")
	}
	if c.Current() != first || !c.IsRendering() {
		t.Fatalf("current render changed: %s (%s)", c.Current(), c.State())
	}

	c.Cancel()
	second, ok := c.Start(testCharges(), r, DefaultOptions())
	if !ok {
		t.Fatal("expected start after cancel to succeed")
	}
	if second == first {
		t.Fatal("expected a new render id")
	}

	ev := waitFor(t, c, first, EventCancelled)
	if ev.Stats.Blocks != 0 {
		t.Errorf("cancelled render painted %d blocks", ev.Stats.Blocks)
	}
	waitFor(t, c, second, EventFinished)
	<-c.Done()
	if c.State() != Finished {
		t.Errorf("expected finished, got %s", c.State())
	}
}

func TestCancelDuringDelayPaintsNothing(t *testing.T) {
	c := NewController(nil, 0)
	defer c.Close()
	r := &countingRaster{w: 64, h: 64}

	opts := DefaultOptions()
	opts.StartDelay = time.Hour
	id, _ := c.Start(testCharges(), r, opts)
	c.Cancel()

	ev := waitFor(t, c, id, EventCancelled)
	if ev.Stats.Completed {
		t.Error("expected incomplete stats")
	}
	<-c.Done()
	if n := r.count(); n != 0 {
		t.Errorf("expected no blocks, got %d", n)
	}
	if c.State() != Cancelled {
		t.Errorf("expected cancelled, got %s", c.State())
	}
}

func TestRestartUsesFreshSnapshot(t *testing.T) {
	reg := charges.NewRegistry(charges.DefaultMaxCharges, charges.DefaultSameChargeDistance)
	reg.Add(3, 3, 1)

	c := NewController(InlineScheduler{}, 0)
	c.Bind(reg)
	r := field.NewImageRaster(20, 20)
	opts := DefaultOptions()
	first, _ := c.Start(reg.Snapshot(), r, opts)
	drain(c)

	reg.Add(15, 12, -4)
	second, ok := c.Restart()
	if !ok {
		t.Fatal("expected restart to succeed")
	}
	if second == first {
		t.Error("expected a new render id")
	}
	drain(c)

	want := field.NewImageRaster(20, 20)
	f := field.Filler{Evaluator: opts.Evaluator, Palette: opts.Palette}
	f.Fill(want, field.Sources(reg.Snapshot()), nil)
	if !bytes.Equal(r.Img.Pix, want.Img.Pix) {
		t.Error("restart did not render the current registry")
	}
}

func TestRestartWithoutSource(t *testing.T) {
	c := NewController(InlineScheduler{}, 0)
	if _, ok := c.Restart(); ok {
		t.Error("expected restart without source to fail")
	}
}

func TestRestartAfterCancelsPending(t *testing.T) {
	reg := charges.NewRegistry(charges.DefaultMaxCharges, charges.DefaultSameChargeDistance)
	reg.Add(1, 1, 1)

	c := NewController(GoScheduler{}, 0)
	defer c.Close()
	c.Bind(reg)
	r := &countingRaster{w: 8, h: 8}

	first, _ := c.Start(reg.Snapshot(), r, DefaultOptions())
	waitFor(t, c, first, EventFinished)

	delayed, ok := c.RestartAfter(time.Hour)
	if !ok {
		t.Fatal("expected delayed restart")
	}
	now, ok := c.Restart()
	if !ok {
		t.Fatal("expected restart to supersede the delayed render")
	}
	waitFor(t, c, delayed, EventCancelled)
	waitFor(t, c, now, EventFinished)
	if got := c.Options().StartDelay; got != 0 {
		t.Errorf("delay leaked into later restarts: %v", got)
	}
}

func TestClearOnFinish(t *testing.T) {
	reg := charges.NewRegistry(charges.DefaultMaxCharges, charges.DefaultSameChargeDistance)
	reg.Add(2, 2, 5)
	reg.Add(6, 6, -5)

	c := NewController(InlineScheduler{}, 0)
	c.Bind(reg)
	opts := DefaultOptions()
	opts.ClearOnFinish = true
	c.Start(reg.Snapshot(), field.NewImageRaster(8, 8), opts)

	if reg.Len() != 0 {
		t.Errorf("expected registry cleared, has %d charges", reg.Len())
	}
}

func TestCancelledRenderDoesNotClear(t *testing.T) {
	reg := charges.NewRegistry(charges.DefaultMaxCharges, charges.DefaultSameChargeDistance)
	reg.Add(2, 2, 5)

	c := NewController(GoScheduler{}, 0)
	defer c.Close()
	c.Bind(reg)
	opts := DefaultOptions()
	opts.ClearOnFinish = true
	opts.StartDelay = time.Hour
	id, _ := c.Start(reg.Snapshot(), &countingRaster{w: 8, h: 8}, opts)
	c.Cancel()
	waitFor(t, c, id, EventCancelled)

	if reg.Len() != 1 {
		t.Errorf("expected registry untouched, has %d charges", reg.Len())
	}
}

func TestProgressNeverBlocks(t *testing.T) {
	c := NewController(InlineScheduler{}, 4)
	c.Start(testCharges(), field.NewImageRaster(64, 64), DefaultOptions())

	events := drain(c)
	if len(events) > 4 {
		t.Fatalf("expected at most 4 events, got %d", len(events))
	}
	if last := events[len(events)-1]; last.Kind != EventFinished {
		t.Errorf("last event = %s, want finished", last.Kind)
	}
}

func TestSnapshotIsCopied(t *testing.T) {
	snap := testCharges()
	c := NewController(GoScheduler{}, 0)
	defer c.Close()
	opts := DefaultOptions()
	opts.StartDelay = 20 * time.Millisecond
	r := field.NewImageRaster(16, 16)
	id, _ := c.Start(snap, r, opts)

	snap[0].Size = 1000
	waitFor(t, c, id, EventFinished)

	want := field.NewImageRaster(16, 16)
	f := field.Filler{Evaluator: opts.Evaluator, Palette: opts.Palette}
	f.Fill(want, field.Sources(testCharges()), nil)
	if !bytes.Equal(r.Img.Pix, want.Img.Pix) {
		t.Error("render saw a mutation made after start")
	}
}

func TestPassObserver(t *testing.T) {
	obs := &passCounter{}
	c := NewController(InlineScheduler{}, 0)
	c.SetPassObserver(obs)
	id, _ := c.Start(testCharges(), field.NewImageRaster(16, 16), DefaultOptions())

	var fin Event
	for _, ev := range drain(c) {
		if ev.Kind == EventFinished {
			fin = ev
		}
	}
	if got := obs.passes[id]; got != fin.Stats.Passes || got == 0 {
		t.Errorf("observer saw %d passes, stats report %d", got, fin.Stats.Passes)
	}
}

func TestIdleController(t *testing.T) {
	c := NewController(nil, 0)
	if c.State() != Idle || c.Current() != uuid.Nil {
		t.Errorf("expected idle controller, got %s %s", c.State(), c.Current())
	}
	select {
	case <-c.Done():
	default:
		t.Error("expected Done closed before the first start")
	}
	c.Cancel()
}
