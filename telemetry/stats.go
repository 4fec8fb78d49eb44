package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RenderRecord describes one ended render.
type RenderRecord struct {
	RenderID  string    `csv:"render_id"`
	EndedAt   time.Time `csv:"-"`
	Timestamp string    `csv:"timestamp"`

	Width   int `csv:"width"`
	Height  int `csv:"height"`
	Charges int `csv:"charges"`

	Evaluator string  `csv:"evaluator"`
	Strategy  string  `csv:"strategy"`
	Density   float64 `csv:"density"`

	Completed bool    `csv:"completed"`
	Blocks    int     `csv:"blocks"`
	Passes    int     `csv:"passes"`
	ElapsedMS float64 `csv:"elapsed_ms"`
}

// LogValue implements slog.LogValuer for structured logging.
func (r RenderRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("render_id", r.RenderID),
		slog.Int("width", r.Width),
		slog.Int("height", r.Height),
		slog.Int("charges", r.Charges),
		slog.String("evaluator", r.Evaluator),
		slog.String("strategy", r.Strategy),
		slog.Bool("completed", r.Completed),
		slog.Int("blocks", r.Blocks),
		slog.Int("passes", r.Passes),
		slog.Float64("elapsed_ms", r.ElapsedMS),
	)
}

// PassRecord is one completed fill pass.
type PassRecord struct {
	RenderID   string `csv:"render_id"`
	Resolution int    `csv:"resolution"`
	ElapsedUS  int64  `csv:"elapsed_us"`
}

// Summary aggregates a set of render records.
// Duration figures cover completed renders only.
type Summary struct {
	Renders   int
	Completed int
	Cancelled int

	MeanMS float64
	StdMS  float64
	MinMS  float64
	MaxMS  float64

	BlocksPerMS float64
}

// Summarize computes a Summary over records.
func Summarize(records []RenderRecord) Summary {
	s := Summary{Renders: len(records)}

	var durations []float64
	var blocks float64
	for _, r := range records {
		if !r.Completed {
			s.Cancelled++
			continue
		}
		s.Completed++
		durations = append(durations, r.ElapsedMS)
		blocks += float64(r.Blocks)
	}
	if len(durations) == 0 {
		return s
	}

	s.MeanMS, s.StdMS = stat.MeanStdDev(durations, nil)
	if len(durations) == 1 {
		s.StdMS = 0
	}
	s.MinMS = floats.Min(durations)
	s.MaxMS = floats.Max(durations)
	if total := floats.Sum(durations); total > 0 {
		s.BlocksPerMS = blocks / total
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("renders", s.Renders),
		slog.Int("completed", s.Completed),
		slog.Int("cancelled", s.Cancelled),
		slog.Float64("mean_ms", s.MeanMS),
		slog.Float64("std_ms", s.StdMS),
		slog.Float64("min_ms", s.MinMS),
		slog.Float64("max_ms", s.MaxMS),
		slog.Float64("blocks_per_ms", s.BlocksPerMS),
	)
}
