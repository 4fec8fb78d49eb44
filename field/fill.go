package field

import (
	"fmt"
	"time"
)

// RepaintMode sets how often the filler emits repaint hints.
type RepaintMode uint8

const (
	// RepaintRow hints after every row of block groups.
	RepaintRow RepaintMode = iota
	// RepaintPass hints once per resolution pass.
	RepaintPass
)

func (m RepaintMode) String() string {
	switch m {
	case RepaintRow:
		return "row"
	case RepaintPass:
		return "pass"
	}
	return fmt.Sprintf("RepaintMode(%d)", m)
}

// ParseRepaintMode parses the configuration name of a repaint mode.
func ParseRepaintMode(s string) (RepaintMode, error) {
	switch s {
	case "", "row":
		return RepaintRow, nil
	case "pass":
		return RepaintPass, nil
	}
	return RepaintRow, fmt.Errorf("unknown repaint mode %q", s)
}

// Progress is a repaint hint: everything up to Row in the current pass has
// been painted with blocks of side Resolution.
type Progress struct {
	Resolution int
	Row        int
	Blocks     int
}

// FillStats summarizes one Fill call.
type FillStats struct {
	Blocks    int  // blocks painted
	Passes    int  // passes fully completed, the initial block not included
	Completed bool // false when the fill stopped on cancellation
}

// Filler paints the field into a raster from coarse to fine blocks.
type Filler struct {
	Evaluator Evaluator
	Palette   Palette
	Repaint   RepaintMode

	// OnProgress, if set, receives repaint hints on the filling goroutine.
	// It must not block.
	OnProgress func(Progress)
	// OnPass, if set, is called after each completed pass.
	OnPass func(resolution int, elapsed time.Duration)
}

// TopResolution returns the largest power of two not above max(w, h).
func TopResolution(w, h int) int {
	size := w
	if h > size {
		size = h
	}
	shifts := 0
	for size > 1 {
		size >>= 1
		shifts++
	}
	return 1 << shifts
}

// Fill paints sources into r. cancelled is polled before every block and at
// every row and pass boundary; once it reports true no further blocks are
// painted and Fill returns with Completed false. A nil cancelled never
// cancels.
func (f *Filler) Fill(r Raster, sources []Source, cancelled func() bool) FillStats {
	if cancelled == nil {
		cancelled = func() bool { return false }
	}
	var st FillStats

	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		st.Completed = true
		return st
	}

	res := TopResolution(w, h)
	if cancelled() {
		return st
	}
	f.plot(r, w, h, 0, 0, res, sources, &st)

	for ; res >= 1; res >>= 1 {
		start := time.Now()
		step := res * 2

		for y1 := 0; y1 < h; y1 += step {
			y2 := y1 + res
			for x1 := 0; x1 < w; x1 += step {
				x2 := x1 + res

				// The corner (x1, y1) is known from a coarser pass; fill the
				// other three blocks of its 2x2 group.
				if cancelled() {
					return st
				}
				f.plot(r, w, h, x1, y2, res, sources, &st)
				if cancelled() {
					return st
				}
				f.plot(r, w, h, x2, y1, res, sources, &st)
				if cancelled() {
					return st
				}
				f.plot(r, w, h, x2, y2, res, sources, &st)
			}
			if f.Repaint == RepaintRow && f.OnProgress != nil {
				f.OnProgress(Progress{Resolution: res, Row: y1, Blocks: st.Blocks})
			}
			if cancelled() {
				return st
			}
		}

		st.Passes++
		if f.Repaint == RepaintPass && f.OnProgress != nil {
			f.OnProgress(Progress{Resolution: res, Row: h, Blocks: st.Blocks})
		}
		if f.OnPass != nil {
			f.OnPass(res, time.Since(start))
		}
		if cancelled() {
			return st
		}
	}

	st.Completed = true
	return st
}

// plot samples the field at (x, y) and paints the size x size block there,
// clipped to the w x h raster.
func (f *Filler) plot(r Raster, w, h, x, y, size int, sources []Source, st *FillStats) {
	if x >= w || y >= h {
		return
	}
	bw, bh := size, size
	if x+bw > w {
		bw = w - x
	}
	if y+bh > h {
		bh = h - y
	}
	v := f.Evaluator.At(x, y, sources)
	r.FillBlock(x, y, bw, bh, f.Palette.Color(v))
	st.Blocks++
}
