package render

import (
	"time"

	"github.com/pthm-cable/fields/field"
)

// Options configures a single render.
type Options struct {
	Evaluator field.Evaluator
	Palette   field.Palette
	Repaint   field.RepaintMode

	// StartDelay postpones painting. Cancelling interrupts the wait.
	StartDelay time.Duration
	// ClearOnFinish clears the bound charge source once the render
	// completes, when the source supports it.
	ClearOnFinish bool
}

// DefaultOptions returns linear evaluation with the default HSV palette,
// per-row repaint hints and no delay.
func DefaultOptions() Options {
	return Options{
		Evaluator: field.NewEvaluator(field.Linear),
		Palette:   field.DefaultPalette(),
		Repaint:   field.RepaintRow,
	}
}
