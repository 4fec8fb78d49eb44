package telemetry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Collector gathers render records and pass timings. It feeds the perf
// window and, when output is enabled, the CSV files. Safe for concurrent use:
// passes arrive on the render worker, records on the owner goroutine.
type Collector struct {
	perf      *PerfCollector
	out       *OutputManager
	logPasses bool

	mu      sync.Mutex
	records []RenderRecord
}

// NewCollector creates a collector. out may be nil.
func NewCollector(perfWindow int, out *OutputManager, logPasses bool) *Collector {
	return &Collector{
		perf:      NewPerfCollector(perfWindow),
		out:       out,
		logPasses: logPasses,
	}
}

// ObservePass implements render.PassObserver.
func (c *Collector) ObservePass(id uuid.UUID, resolution int, elapsed time.Duration) {
	c.perf.ObservePass(id, resolution, elapsed)
	if c.logPasses {
		slog.Debug("pass", "render_id", id, "resolution", resolution, "elapsed", elapsed)
	}
	rec := PassRecord{RenderID: id.String(), Resolution: resolution, ElapsedUS: elapsed.Microseconds()}
	if err := c.out.WritePass(rec); err != nil {
		slog.Warn("telemetry write failed", "error", err)
	}
}

// RecordRender stores an ended render.
func (c *Collector) RecordRender(id uuid.UUID, r RenderRecord) {
	if r.EndedAt.IsZero() {
		r.EndedAt = time.Now()
	}
	r.RenderID = id.String()
	r.Timestamp = r.EndedAt.UTC().Format(time.RFC3339)

	if r.Completed {
		c.perf.EndRender(id, time.Duration(r.ElapsedMS*float64(time.Millisecond)))
	}

	c.mu.Lock()
	c.records = append(c.records, r)
	c.mu.Unlock()

	slog.Info("render", "record", r)
	if err := c.out.WriteRender(r); err != nil {
		slog.Warn("telemetry write failed", "error", err)
	}
}

// RecordFrame forwards frame timing to the perf window.
func (c *Collector) RecordFrame() {
	c.perf.RecordFrame()
}

// Records returns a copy of every record so far.
func (c *Collector) Records() []RenderRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]RenderRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Summary summarizes every record so far.
func (c *Collector) Summary() Summary {
	return Summarize(c.Records())
}

// Perf returns the rolling perf statistics.
func (c *Collector) Perf() PerfStats {
	return c.perf.Stats()
}
