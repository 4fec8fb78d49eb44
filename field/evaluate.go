// Package field computes the scalar potential of a set of point charges and
// paints it progressively into a raster.
package field

import (
	"fmt"
	"math"

	"github.com/pthm-cable/fields/charges"
)

// Overflow is the field value at the exact location of a charge.
var Overflow = math.Inf(1)

// DefaultBaseline is the additive bias of every field value.
const DefaultBaseline = 1.0

// EvaluatorKind selects how a charge's contribution falls off with distance.
type EvaluatorKind uint8

const (
	// Linear adds size/d.
	Linear EvaluatorKind = iota
	// InverseSquare adds signum(size)*size²/d².
	InverseSquare
)

func (k EvaluatorKind) String() string {
	switch k {
	case Linear:
		return "linear"
	case InverseSquare:
		return "inverse_square"
	}
	return fmt.Sprintf("EvaluatorKind(%d)", k)
}

// ParseEvaluatorKind parses the configuration name of an evaluator.
func ParseEvaluatorKind(s string) (EvaluatorKind, error) {
	switch s {
	case "", "linear":
		return Linear, nil
	case "inverse_square", "inverse-square", "square":
		return InverseSquare, nil
	}
	return Linear, fmt.Errorf("unknown evaluator kind %q", s)
}

// Source is a charge prepared for evaluation.
type Source struct {
	X, Y    int
	Size    float64
	SizeSqr float64 // signum(Size) * Size², keeps the sign of Size
}

// Sources converts a charge snapshot into its evaluation form.
func Sources(cs []charges.Charge) []Source {
	out := make([]Source, len(cs))
	for i, c := range cs {
		out[i] = Source{
			X:       c.X,
			Y:       c.Y,
			Size:    c.Size,
			SizeSqr: math.Copysign(c.Size*c.Size, c.Size),
		}
	}
	return out
}

// Evaluator computes the field value at raster coordinates.
type Evaluator struct {
	Kind     EvaluatorKind
	Baseline float64
}

// NewEvaluator returns an evaluator with the default baseline.
func NewEvaluator(kind EvaluatorKind) Evaluator {
	return Evaluator{Kind: kind, Baseline: DefaultBaseline}
}

// At returns the field value at (x, y). A point coinciding with a charge
// yields Overflow and the remaining charges are ignored.
func (e Evaluator) At(x, y int, sources []Source) float64 {
	v := e.Baseline
	for i := range sources {
		s := &sources[i]
		dx := float64(x - s.X)
		dy := float64(y - s.Y)
		d2 := dx*dx + dy*dy
		if d2 == 0 {
			return Overflow
		}
		if e.Kind == InverseSquare {
			v += s.SizeSqr / d2
		} else {
			v += s.Size / math.Sqrt(d2)
		}
	}
	return v
}
