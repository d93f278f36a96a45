package fit

import (
	"slices"

	"github.com/Faultbox/midgard-spline/pkg/math"
)

// Simplify reduces a polyline with Ramer-Douglas-Peucker. Points within
// epsilon of the chord of their enclosing kept pair are dropped; the first
// and last points always survive. Inputs of fewer than three points are
// returned as is.
func Simplify(points []math.Vec3, epsilon float32) []math.Vec3 {
	if len(points) < 3 {
		return points
	}
	idx := SimplifyIndices(points, epsilon)
	out := make([]math.Vec3, len(idx))
	for i, k := range idx {
		out[i] = points[k]
	}
	return out
}

// SimplifyIndices is Simplify but reports the kept indices in ascending order.
func SimplifyIndices(points []math.Vec3, epsilon float32) []int {
	n := len(points)
	if n < 3 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true
	rdp(points, 0, n-1, max(epsilon, 0), keep)

	idx := make([]int, 0, n)
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	return slices.Clip(idx)
}

func rdp(points []math.Vec3, first, last int, epsilon float32, keep []bool) {
	if last-first < 2 {
		return
	}
	a, b := points[first], points[last]
	var maxD float32
	split := -1
	for i := first + 1; i < last; i++ {
		if d := math.DistanceToLine(a, b, points[i]); d > maxD {
			maxD, split = d, i
		}
	}
	// Float32 round-off leaves colinear points slightly off the chord
	tol := math.Epsilon * max(1, b.Sub(a).Length())
	if split < 0 || maxD <= epsilon+tol {
		return
	}
	keep[split] = true
	rdp(points, first, split, epsilon, keep)
	rdp(points, split, last, epsilon, keep)
}
