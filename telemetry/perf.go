package telemetry

import (
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PerfSample holds timing data for a single render.
type PerfSample struct {
	RenderDuration time.Duration
	Passes         map[int]time.Duration // block size -> pass duration
}

// PerfCollector tracks render timings over a rolling window.
// Pass timings arrive on the render worker, so it is safe for concurrent use.
type PerfCollector struct {
	mu sync.Mutex

	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	current       uuid.UUID
	currentPasses map[int]time.Duration

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of renders to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 30
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPasses: make(map[int]time.Duration),
	}
}

// ObservePass records one completed pass of render id.
func (p *PerfCollector) ObservePass(id uuid.UUID, resolution int, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id != p.current {
		p.current = id
		p.currentPasses = make(map[int]time.Duration)
	}
	p.currentPasses[resolution] += elapsed
}

// EndRender finishes render id and records its sample.
func (p *PerfCollector) EndRender(id uuid.UUID, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	passes := p.currentPasses
	if id != p.current {
		passes = make(map[int]time.Duration)
	}
	p.samples[p.writeIndex] = PerfSample{RenderDuration: elapsed, Passes: passes}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}

	p.current = uuid.Nil
	p.currentPasses = make(map[int]time.Duration)
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Renders int

	// Render timing
	AvgRenderDuration time.Duration
	MinRenderDuration time.Duration
	MaxRenderDuration time.Duration

	// Pass breakdown by block size (average durations)
	PassAvg map[int]time.Duration

	// Pass percentages of total render time
	PassPct map[int]float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PassAvg:       make(map[int]time.Duration),
			PassPct:       make(map[int]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var total, minD, maxD time.Duration
	passSum := make(map[int]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.RenderDuration
		if i == 0 || s.RenderDuration < minD {
			minD = s.RenderDuration
		}
		if s.RenderDuration > maxD {
			maxD = s.RenderDuration
		}
		for res, d := range s.Passes {
			passSum[res] += d
		}
	}

	avg := total / time.Duration(p.sampleCount)

	passAvg := make(map[int]time.Duration, len(passSum))
	passPct := make(map[int]float64, len(passSum))
	for res, sum := range passSum {
		passAvg[res] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			passPct[res] = float64(passAvg[res]) / float64(avg) * 100
		}
	}

	return PerfStats{
		Renders:           p.sampleCount,
		AvgRenderDuration: avg,
		MinRenderDuration: minD,
		MaxRenderDuration: maxD,
		PassAvg:           passAvg,
		PassPct:           passPct,
		FrameDuration:     p.frameDuration,
		FPS:               fps,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("renders", s.Renders),
		slog.Int64("avg_render_ms", s.AvgRenderDuration.Milliseconds()),
		slog.Int64("min_render_ms", s.MinRenderDuration.Milliseconds()),
		slog.Int64("max_render_ms", s.MaxRenderDuration.Milliseconds()),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}

	// Largest blocks first, in pass order
	sizes := make([]int, 0, len(s.PassPct))
	for res := range s.PassPct {
		sizes = append(sizes, res)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	for _, res := range sizes {
		if pct := s.PassPct[res]; pct > 0.1 {
			attrs = append(attrs, slog.Float64("pass_"+strconv.Itoa(res)+"_pct", float64(int(pct*10))/10))
		}
	}

	return slog.GroupValue(attrs...)
}
