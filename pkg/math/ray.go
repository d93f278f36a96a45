package math

import "github.com/chewxy/math32"

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    Vec3
	Direction Vec3 // Normalized direction
}

// NewRay returns a ray with a normalized direction.
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.NormalizeOr(Forward)}
}

// At returns the point at distance d along the ray.
func (r Ray) At(d float32) Vec3 {
	return r.Origin.Add(r.Direction.Scale(d))
}

// ClosestPoint returns the point on the ray closest to p.
// Points behind the origin project onto the origin.
func (r Ray) ClosestPoint(p Vec3) Vec3 {
	d := p.Sub(r.Origin).Dot(r.Direction)
	if d < 0 {
		return r.Origin
	}
	return r.At(d)
}

// DistanceToPoint returns the perpendicular distance from p to the ray.
func (r Ray) DistanceToPoint(p Vec3) float32 {
	return p.Distance(r.ClosestPoint(p))
}

// ClosestToSegment returns the parameter s in [0,1] of the point on segment
// ab closest to the ray, along with that point's distance to the ray.
func (r Ray) ClosestToSegment(a, b Vec3) (s, dist float32) {
	ab := b.Sub(a)
	w := a.Sub(r.Origin)
	aa := ab.Dot(ab)
	bd := ab.Dot(r.Direction)
	dd := r.Direction.Dot(r.Direction)
	aw := ab.Dot(w)
	dw := r.Direction.Dot(w)

	denom := aa*dd - bd*bd
	if aa < Epsilon {
		return 0, r.DistanceToPoint(a)
	}
	if math32.Abs(denom) < Epsilon {
		// Parallel: any point works, pick the segment start
		s = 0
	} else {
		s = Clamp01((bd*dw - dd*aw) / denom)
	}
	p := a.Add(ab.Scale(s))
	return s, r.DistanceToPoint(p)
}

// ClosestOnSegment returns the parameter s in [0,1] of the point on segment
// ab closest to p.
func ClosestOnSegment(a, b, p Vec3) float32 {
	ab := b.Sub(a)
	l := ab.LengthSquared()
	if l < Epsilon {
		return 0
	}
	return Clamp01(p.Sub(a).Dot(ab) / l)
}

// DistanceToLine returns the perpendicular distance from p to the infinite
// line through a and b. Coincident a and b measure the distance to a.
func DistanceToLine(a, b, p Vec3) float32 {
	ab := b.Sub(a)
	l := ab.Length()
	if l < Epsilon {
		return p.Distance(a)
	}
	return ab.Cross(p.Sub(a)).Length() / l
}
