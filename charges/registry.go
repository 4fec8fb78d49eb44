package charges

import (
	"math"
	"math/rand"
	"sync"
)

// Registry defaults.
const (
	DefaultMaxCharges         = 10
	DefaultMinCharges         = 2
	DefaultSameChargeDistance = 32
	DefaultRandomSizeMax      = 20.0
)

// Registry is a bounded, ordered collection of charges.
// Insertion order is preserved so iteration (and tie-breaking) is deterministic.
// A Registry is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	charges []Charge

	maxCharges int
	// sameDistSq is the squared pick radius for nearest-charge queries.
	sameDistSq int64
}

// NewRegistry creates an empty registry holding at most maxCharges charges.
// sameChargeDistance is the pick radius in pixels for the nearest-charge queries.
func NewRegistry(maxCharges, sameChargeDistance int) *Registry {
	if maxCharges < 1 {
		maxCharges = DefaultMaxCharges
	}
	if sameChargeDistance < 0 {
		sameChargeDistance = 0
	}
	d := int64(sameChargeDistance)
	return &Registry{
		charges:    make([]Charge, 0, maxCharges),
		maxCharges: maxCharges,
		sameDistSq: d * d,
	}
}

// Cap returns the maximum number of charges.
func (r *Registry) Cap() int {
	return r.maxCharges
}

// Len returns the number of charges.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.charges)
}

// Add appends a charge. It returns false, leaving the registry unchanged,
// when the registry is full or size is not finite.
func (r *Registry) Add(x, y int, size float64) bool {
	return r.AddCharge(Charge{X: x, Y: y, Size: size})
}

// AddCharge appends c. See Add.
func (r *Registry) AddCharge(c Charge) bool {
	if math.IsNaN(c.Size) || math.IsInf(c.Size, 0) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.charges) >= r.maxCharges {
		return false
	}
	r.charges = append(r.charges, c)
	return true
}

// nearest returns the index of the charge closest to (x, y) within the pick
// radius, or -1. Ties keep the first charge in iteration order.
// Caller must hold r.mu.
func (r *Registry) nearest(x, y int) int {
	best := -1
	bestDist := int64(math.MaxInt64)
	for i, c := range r.charges {
		d := c.distSq(x, y)
		if d <= r.sameDistSq && d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// FindNearest returns the charge nearest to (x, y) within the pick radius.
func (r *Registry) FindNearest(x, y int) (Charge, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.nearest(x, y)
	if i < 0 {
		return Charge{}, false
	}
	return r.charges[i], true
}

// NearestIndex returns the position of the charge nearest to (x, y) within the
// pick radius, or -1 when there is none.
func (r *Registry) NearestIndex(x, y int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nearest(x, y)
}

// InvertNearest negates the size of the charge nearest to (x, y) and returns
// the updated charge.
func (r *Registry) InvertNearest(x, y int) (Charge, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.nearest(x, y)
	if i < 0 {
		return Charge{}, false
	}
	r.charges[i].Size = -r.charges[i].Size
	return r.charges[i], true
}

// ScaleNearest multiplies the size of the charge nearest to (x, y) by factor.
// Non-finite factors are rejected so sizes stay finite.
func (r *Registry) ScaleNearest(x, y int, factor float64) (Charge, bool) {
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return Charge{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.nearest(x, y)
	if i < 0 {
		return Charge{}, false
	}
	size := r.charges[i].Size * factor
	if math.IsInf(size, 0) {
		return Charge{}, false
	}
	r.charges[i].Size = size
	return r.charges[i], true
}

// ScaleAt multiplies the size of the charge at index i by factor.
// Used when a scale gesture has already picked its target.
func (r *Registry) ScaleAt(i int, factor float64) (Charge, bool) {
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return Charge{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.charges) {
		return Charge{}, false
	}
	size := r.charges[i].Size * factor
	if math.IsInf(size, 0) {
		return Charge{}, false
	}
	r.charges[i].Size = size
	return r.charges[i], true
}

// Clear removes all charges.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.charges = r.charges[:0]
}

// Snapshot returns an ordered copy of the charges.
func (r *Registry) Snapshot() []Charge {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Charge, len(r.charges))
	copy(out, r.charges)
	return out
}

// RandomOptions bounds Randomise.
type RandomOptions struct {
	MinCharges int     // inclusive
	MaxCharges int     // exclusive
	SizeMax    float64 // sizes are drawn from [-SizeMax, SizeMax)
}

// Randomise replaces the contents with a random set of charges placed inside
// a w x h raster. It returns the number of charges added.
func (r *Registry) Randomise(rng *rand.Rand, w, h int, opts RandomOptions) int {
	if opts.MinCharges < 1 {
		opts.MinCharges = DefaultMinCharges
	}
	if opts.MaxCharges <= opts.MinCharges {
		opts.MaxCharges = opts.MinCharges + 1
	}
	if opts.SizeMax <= 0 {
		opts.SizeMax = DefaultRandomSizeMax
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	count := opts.MinCharges + rng.Intn(opts.MaxCharges-opts.MinCharges)
	if count > r.maxCharges {
		count = r.maxCharges
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.charges = r.charges[:0]
	for i := 0; i < count; i++ {
		r.charges = append(r.charges, Charge{
			X:    rng.Intn(w),
			Y:    rng.Intn(h),
			Size: (rng.Float64()*2 - 1) * opts.SizeMax,
		})
	}
	return count
}
