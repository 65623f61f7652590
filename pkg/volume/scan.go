package volume

import (
	"iter"
	"math"

	"github.com/taigrr/volslice/pkg/math3d"
)

// DepthRange returns the smallest and largest eye-space z among the points.
func DepthRange(points [8]math3d.Vec3) (lo, hi float64) {
	lo, hi = points[0].Z, points[0].Z
	for _, p := range points[1:] {
		lo = math.Min(lo, p.Z)
		hi = math.Max(hi, p.Z)
	}
	return lo, hi
}

// depthAt is the i-th scan depth. Computed from the index rather than by
// accumulation so any slice can be produced independently.
func depthAt(lo, step float64, i int) float64 {
	return lo + float64(i)*step
}

// Depths yields lo, lo+step, lo+2*step, ... while the value is below hi.
// Nothing is yielded when hi <= lo or step is not a positive finite number.
// The sequence restarts on every range.
func Depths(lo, hi, step float64) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		if !validStep(step) {
			return
		}
		for i := 0; ; i++ {
			d := depthAt(lo, step, i)
			if !(d < hi) {
				return
			}
			if !yield(d) {
				return
			}
		}
	}
}

// SliceCount returns how many depths Depths(lo, hi, step) yields, roughly
// ceil((hi-lo)/step), without iterating.
func SliceCount(lo, hi, step float64) int {
	if !validStep(step) || !(lo < hi) {
		return 0
	}
	n := int(math.Ceil((hi - lo) / step))
	// Correct for rounding so the count matches the d < hi test exactly.
	for n > 0 && !(depthAt(lo, step, n-1) < hi) {
		n--
	}
	for depthAt(lo, step, n) < hi {
		n++
	}
	return n
}

func validStep(step float64) bool {
	return step > 0 && !math.IsInf(step, 1)
}
