package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fields/charges"
)

// ToScreen maps raster coordinates to window coordinates.
type ToScreen func(rx, ry float32) (float32, float32)

// DrawChargeMarkers outlines every charge and fills the one under the
// cursor (hot < 0 means none). Radius is the pick radius in raster pixels.
func DrawChargeMarkers(cs []charges.Charge, hot int, radius, zoom float32, toScreen ToScreen) {
	theme := DefaultTheme()
	for i, c := range cs {
		sx, sy := toScreen(float32(c.X)+0.5, float32(c.Y)+0.5)
		col := theme.MarkerPositive
		if c.Size < 0 {
			col = theme.MarkerNegative
		}
		if i == hot {
			fill := col
			fill.A = 60
			rl.DrawCircle(int32(sx), int32(sy), radius*zoom, fill)
		}
		rl.DrawCircleLines(int32(sx), int32(sy), radius*zoom, col)
		rl.DrawLine(int32(sx)-4, int32(sy), int32(sx)+5, int32(sy), col)
		if c.Size > 0 {
			rl.DrawLine(int32(sx), int32(sy)-4, int32(sx), int32(sy)+5, col)
		}
	}
}
