package spline

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-spline/pkg/math"
)

// Search bounds for nearest-point queries.
const (
	MinNearestResolution = 2
	MaxNearestResolution = 64
	MinNearestIterations = 1
	MaxNearestIterations = 10

	// nearestPassLength adds one refinement pass per this many units of
	// spline length.
	nearestPassLength = 100

	// nearestMinSpan stops refinement once a sub-interval covers less than
	// this much world length.
	nearestMinSpan = 1e-4
)

// Nearest is the result of a closest-point query.
type Nearest struct {
	Distance float32
	Point    math.Vec3
	T        float32 // normalized linear parameter
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NearestToPoint finds the spline point closest to p. Each pass splits the
// current parameter interval into resolution-1 chords, keeps the chord
// closest to p (the earliest on ties) and narrows to it. resolution is
// clamped to [2,64] and iterations to [1,10]; long splines get extra
// passes within the same cap.
func (s *Spline) NearestToPoint(p math.Vec3, resolution, iterations int) Nearest {
	return s.nearest(resolution, iterations,
		func(a, b math.Vec3) (float32, float32) {
			f := math.ClosestOnSegment(a, b, p)
			return f, a.Lerp(b, f).Distance(p)
		},
		func(q math.Vec3) float32 { return q.Distance(p) },
	)
}

// NearestToRay finds the spline point closest to a ray. Distance is
// measured from the returned point to the ray.
func (s *Spline) NearestToRay(r math.Ray, resolution, iterations int) Nearest {
	return s.nearest(resolution, iterations,
		r.ClosestToSegment,
		r.DistanceToPoint,
	)
}

// nearest runs the interval refinement. chord returns the fraction along
// a chord closest to the query and the distance there; measure scores the
// final point.
func (s *Spline) nearest(
	resolution, iterations int,
	chord func(a, b math.Vec3) (float32, float32),
	measure func(math.Vec3) float32,
) Nearest {
	res := clampInt(resolution, MinNearestResolution, MaxNearestResolution)
	length := s.Length()
	iters := clampInt(iterations+int(length/nearestPassLength), MinNearestIterations, MaxNearestIterations)

	lo, hi := float32(0), float32(1)
	var t float32
	for pass := 0; pass < iters; pass++ {
		step := (hi - lo) / float32(res-1)
		best := math32.Inf(1)
		bestK, bestF := 0, float32(0)
		prev := s.GetPoint(lo)
		for k := 1; k < res; k++ {
			cur := s.GetPoint(lo + step*float32(k))
			f, d := chord(prev, cur)
			if d < best {
				best, bestK, bestF = d, k-1, f
			}
			prev = cur
		}
		lo = lo + step*float32(bestK)
		hi = lo + step
		t = lo + step*bestF
		if step*length < nearestMinSpan {
			break
		}
	}

	pt := s.GetPoint(t)
	return Nearest{Distance: measure(pt), Point: pt, T: t}
}
