package field

import (
	"bytes"
	"image/color"
	"testing"
	"time"

	"github.com/pthm-cable/fields/charges"
)

// block is one recorded FillBlock call.
type block struct {
	x, y, w, h int
	c          color.RGBA
}

// recordingRaster wraps an ImageRaster and keeps every FillBlock call.
type recordingRaster struct {
	*ImageRaster
	blocks []block
}

func newRecordingRaster(w, h int) *recordingRaster {
	return &recordingRaster{ImageRaster: NewImageRaster(w, h)}
}

func (r *recordingRaster) FillBlock(x, y, w, h int, c color.RGBA) {
	r.blocks = append(r.blocks, block{x, y, w, h, c})
	r.ImageRaster.FillBlock(x, y, w, h, c)
}

func testSources() []Source {
	return Sources([]charges.Charge{
		{X: 5, Y: 7, Size: 3},
		{X: 40, Y: 12, Size: -2},
		{X: 21, Y: 60, Size: 9},
	})
}

func TestTopResolution(t *testing.T) {
	tests := []struct {
		w, h, want int
	}{
		{0, 0, 1},
		{1, 1, 1},
		{2, 1, 2},
		{3, 3, 2},
		{512, 512, 512},
		{600, 400, 512},
		{400, 1023, 512},
		{513, 2, 512},
	}
	for _, tc := range tests {
		if got := TopResolution(tc.w, tc.h); got != tc.want {
			t.Errorf("TopResolution(%d,%d) = %d, want %d", tc.w, tc.h, got, tc.want)
		}
	}
}

func TestFillMatchesPointSampling(t *testing.T) {
	sizes := [][2]int{{1, 1}, {2, 3}, {7, 5}, {64, 64}, {100, 37}, {3, 130}}
	src := testSources()

	for _, strategy := range []ColorStrategy{HSV, BitPacked} {
		f := &Filler{Evaluator: NewEvaluator(Linear), Palette: DefaultPalette()}
		f.Palette.Strategy = strategy

		for _, sz := range sizes {
			w, h := sz[0], sz[1]
			r := newRecordingRaster(w, h)
			st := f.Fill(r, src, nil)
			if !st.Completed {
				t.Fatalf("%dx%d: fill did not complete", w, h)
			}

			for _, b := range r.blocks {
				if b.w <= 0 || b.h <= 0 || b.x < 0 || b.y < 0 || b.x+b.w > w || b.y+b.h > h {
					t.Fatalf("%dx%d: block out of bounds: %+v", w, h, b)
				}
			}

			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					want := f.Palette.Color(f.Evaluator.At(x, y, src))
					got := r.Img.RGBAAt(x, y)
					if got != want {
						t.Fatalf("%s %dx%d: pixel (%d,%d) = %v, want %v", strategy, w, h, x, y, got, want)
					}
				}
			}
		}
	}
}

func TestFillPassesDoNotOverlap(t *testing.T) {
	const w, h = 50, 33
	r := newRecordingRaster(w, h)

	var passEnds []int
	var passRes []int
	f := &Filler{
		Evaluator: NewEvaluator(Linear),
		Palette:   DefaultPalette(),
		OnPass: func(res int, _ time.Duration) {
			passEnds = append(passEnds, len(r.blocks))
			passRes = append(passRes, res)
		},
	}
	st := f.Fill(r, testSources(), nil)

	top := TopResolution(w, h)
	wantPasses := 0
	for res := top; res >= 1; res >>= 1 {
		wantPasses++
	}
	if st.Passes != wantPasses || len(passEnds) != wantPasses {
		t.Fatalf("expected %d passes, got %d (%d callbacks)", wantPasses, st.Passes, len(passEnds))
	}
	if passRes[len(passRes)-1] != 1 {
		t.Fatalf("last pass resolution = %d, want 1", passRes[len(passRes)-1])
	}

	// The initial block covers everything; each pass must then write each
	// pixel at most once.
	start := 1
	for i, end := range passEnds {
		written := make([]bool, w*h)
		for _, b := range r.blocks[start:end] {
			for y := b.y; y < b.y+b.h; y++ {
				for x := b.x; x < b.x+b.w; x++ {
					if written[y*w+x] {
						t.Fatalf("pass %d (res %d): pixel (%d,%d) written twice", i, passRes[i], x, y)
					}
					written[y*w+x] = true
				}
			}
		}
		start = end
	}
}

func TestFillBlockCountPowerOfTwo(t *testing.T) {
	r := newRecordingRaster(64, 64)
	f := &Filler{Evaluator: NewEvaluator(Linear), Palette: DefaultPalette()}
	st := f.Fill(r, testSources(), nil)

	// Every block sample point is a distinct pixel.
	if st.Blocks != 64*64 {
		t.Errorf("expected %d blocks, got %d", 64*64, st.Blocks)
	}
	if len(r.blocks) != st.Blocks {
		t.Errorf("stats report %d blocks, raster saw %d", st.Blocks, len(r.blocks))
	}
}

func TestFillCancellationStopsWrites(t *testing.T) {
	r := newRecordingRaster(128, 96)
	f := &Filler{Evaluator: NewEvaluator(InverseSquare), Palette: DefaultPalette()}

	const limit = 10
	st := f.Fill(r, testSources(), func() bool { return len(r.blocks) >= limit })

	if st.Completed {
		t.Error("expected cancelled fill")
	}
	if len(r.blocks) != limit {
		t.Errorf("expected exactly %d blocks before cancellation, got %d", limit, len(r.blocks))
	}
}

func TestFillCancelledBeforeStart(t *testing.T) {
	r := newRecordingRaster(16, 16)
	f := &Filler{Evaluator: NewEvaluator(Linear), Palette: DefaultPalette()}
	st := f.Fill(r, testSources(), func() bool { return true })

	if st.Completed || st.Blocks != 0 || len(r.blocks) != 0 {
		t.Errorf("expected no writes, got %+v and %d blocks", st, len(r.blocks))
	}
}

func TestFillNoChargesIsUniform(t *testing.T) {
	r := newRecordingRaster(37, 21)
	f := &Filler{Evaluator: NewEvaluator(Linear), Palette: DefaultPalette()}
	f.Fill(r, nil, nil)

	want := f.Palette.Color(DefaultBaseline)
	for y := 0; y < 21; y++ {
		for x := 0; x < 37; x++ {
			if got := r.Img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestFillEmptyRaster(t *testing.T) {
	r := newRecordingRaster(0, 0)
	f := &Filler{Evaluator: NewEvaluator(Linear), Palette: DefaultPalette()}
	st := f.Fill(r, testSources(), nil)
	if !st.Completed || len(r.blocks) != 0 {
		t.Errorf("expected completed empty fill, got %+v", st)
	}
}

func TestFillRepaintHints(t *testing.T) {
	tests := []struct {
		mode RepaintMode
		want int
	}{
		// 8x8: passes at 8, 4, 2, 1 with 1, 1, 2, 4 rows.
		{RepaintRow, 8},
		{RepaintPass, 4},
	}
	for _, tc := range tests {
		var hints []Progress
		f := &Filler{
			Evaluator:  NewEvaluator(Linear),
			Palette:    DefaultPalette(),
			Repaint:    tc.mode,
			OnProgress: func(p Progress) { hints = append(hints, p) },
		}
		f.Fill(NewImageRaster(8, 8), testSources(), nil)
		if len(hints) != tc.want {
			t.Errorf("%s: expected %d hints, got %d", tc.mode, tc.want, len(hints))
			continue
		}
		last := hints[len(hints)-1]
		if last.Resolution != 1 {
			t.Errorf("%s: last hint resolution = %d, want 1", tc.mode, last.Resolution)
		}
	}
}

func TestFillDeterministic(t *testing.T) {
	src := Sources([]charges.Charge{
		{X: 100, Y: 100, Size: 1},
		{X: 400, Y: 400, Size: 3},
	})
	f := &Filler{
		Evaluator: NewEvaluator(Linear),
		Palette:   Palette{Strategy: BitPacked, Density: DefaultDensity},
	}

	a := NewImageRaster(512, 512)
	b := NewImageRaster(512, 512)
	f.Fill(a, src, nil)
	f.Fill(b, src, nil)

	if !bytes.Equal(a.Img.Pix, b.Img.Pix) {
		t.Fatal("two renders of the same input differ")
	}
	if got := a.Img.RGBAAt(100, 100); got != OverflowBitPacked {
		t.Errorf("pixel at charge = %v, want overflow color", got)
	}
	if got := a.Img.RGBAAt(400, 400); got != OverflowBitPacked {
		t.Errorf("pixel at charge = %v, want overflow color", got)
	}
}
