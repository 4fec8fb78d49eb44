// Package charges holds the point charges that induce the rendered field.
package charges

import (
	"fmt"
	"time"
)

// Charge is a point source with a raster position and a signed magnitude.
// Coordinates may lie outside the raster; they are never clamped.
type Charge struct {
	X    int     `json:"x" yaml:"x"`
	Y    int     `json:"y" yaml:"y"`
	Size float64 `json:"size" yaml:"size"`
}

func (c Charge) String() string {
	return fmt.Sprintf("Charge(%d, %d, %g)", c.X, c.Y, c.Size)
}

// distSq returns the squared distance from (x, y) to the charge.
func (c Charge) distSq(x, y int) int64 {
	dx := int64(x - c.X)
	dy := int64(y - c.Y)
	return dx*dx + dy*dy
}

// Tap sizing: a press adds one unit per tapUnit held, capped at maxTapPress.
const (
	tapUnit     = 20 * time.Millisecond
	maxTapPress = time.Second
)

// TapSize returns the size of a charge created by a press lasting d.
// Longer presses make bigger charges, up to 1 + 1s/20ms = 51.
func TapSize(d time.Duration) float64 {
	if d < 0 {
		d = 0
	}
	if d > maxTapPress {
		d = maxTapPress
	}
	return 1.0 + float64(d/tapUnit)
}
