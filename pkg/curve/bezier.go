// Package curve evaluates single cubic Bezier segments and standalone NURBS curves.
package curve

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-spline/pkg/math"
)

// Bezier is one cubic segment: two anchors (P0, P3) and two handles (P1, P2).
type Bezier struct {
	P0, P1, P2, P3 math.Vec3
}

// Position returns the point at t using the expanded polynomial.
// Position(0) is exactly P0 and Position(1) is exactly P3.
func (b Bezier) Position(t float32) math.Vec3 {
	t = math.Clamp01(t)
	mt := 1 - t
	a := mt * mt * mt
	c1 := 3 * mt * mt * t
	c2 := 3 * mt * t * t
	d := t * t * t
	return math.Vec3{
		X: a*b.P0.X + c1*b.P1.X + c2*b.P2.X + d*b.P3.X,
		Y: a*b.P0.Y + c1*b.P1.Y + c2*b.P2.Y + d*b.P3.Y,
		Z: a*b.P0.Z + c1*b.P1.Z + c2*b.P2.Z + d*b.P3.Z,
	}
}

// Velocity returns the first derivative at t.
func (b Bezier) Velocity(t float32) math.Vec3 {
	t = math.Clamp01(t)
	mt := 1 - t
	d01 := b.P1.Sub(b.P0).Scale(3 * mt * mt)
	d12 := b.P2.Sub(b.P1).Scale(6 * mt * t)
	d23 := b.P3.Sub(b.P2).Scale(3 * t * t)
	return d01.Add(d12).Add(d23)
}

// Acceleration returns the second derivative at t.
func (b Bezier) Acceleration(t float32) math.Vec3 {
	t = math.Clamp01(t)
	a := b.P2.Sub(b.P1.Scale(2)).Add(b.P0).Scale(6 * (1 - t))
	c := b.P3.Sub(b.P2.Scale(2)).Add(b.P1).Scale(6 * t)
	return a.Add(c)
}

// Curvature returns |v×a| / |v|³, or 0 where the velocity vanishes.
func (b Bezier) Curvature(t float32) float32 {
	v := b.Velocity(t)
	speed := v.Length()
	if speed < math.Epsilon {
		return 0
	}
	k := v.Cross(b.Acceleration(t)).Length() / (speed * speed * speed)
	if math32.IsNaN(k) || math32.IsInf(k, 0) {
		return 0
	}
	return k
}

// Tangent returns the unit direction of travel at t.
// Where the velocity vanishes (coincident handle and anchor), the direction
// is taken from a point slightly further along, then from the chord, and
// finally the forward axis.
func (b Bezier) Tangent(t float32) math.Vec3 {
	v := b.Velocity(t)
	if v.Length() >= math.Epsilon {
		return v.Normalize()
	}
	const nudge = 1e-3
	if t < 0.5 {
		v = b.Position(t + nudge).Sub(b.Position(t))
	} else {
		v = b.Position(t).Sub(b.Position(t - nudge))
	}
	if v.Length() >= math.Epsilon {
		return v.Normalize()
	}
	return b.P3.Sub(b.P0).NormalizeOr(math.Forward)
}

// EstimatedLength approximates the arc length from the control polygon:
// chord + (perimeter - chord) / 2.
func (b Bezier) EstimatedLength() float32 {
	chord := b.P0.Distance(b.P3)
	perimeter := b.P0.Distance(b.P1) + b.P1.Distance(b.P2) + b.P2.Distance(b.P3)
	return chord + (perimeter-chord)/2
}

// Length approximates the arc length with a polyline of steps segments.
func (b Bezier) Length(steps int) float32 {
	if steps < 1 {
		steps = 1
	}
	var total float32
	prev := b.P0
	for i := 1; i <= steps; i++ {
		p := b.Position(float32(i) / float32(steps))
		total += prev.Distance(p)
		prev = p
	}
	return total
}

// Split divides the segment at t using de Casteljau's construction.
func (b Bezier) Split(t float32) (Bezier, Bezier) {
	t = math.Clamp01(t)
	p01 := b.P0.Lerp(b.P1, t)
	p12 := b.P1.Lerp(b.P2, t)
	p23 := b.P2.Lerp(b.P3, t)
	p012 := p01.Lerp(p12, t)
	p123 := p12.Lerp(p23, t)
	mid := p012.Lerp(p123, t)
	return Bezier{b.P0, p01, p012, mid}, Bezier{mid, p123, p23, b.P3}
}

// Reverse returns the same segment traversed from P3 to P0.
func (b Bezier) Reverse() Bezier {
	return Bezier{b.P3, b.P2, b.P1, b.P0}
}

// RotationAt interpolates four control rotations with nested slerps,
// mirroring de Casteljau's structure: three pairwise, then two, then one.
func RotationAt(r0, r1, r2, r3 math.Quat, t float32) math.Quat {
	t = math.Clamp01(t)
	a := r0.Slerp(r1, t)
	b := r1.Slerp(r2, t)
	c := r2.Slerp(r3, t)
	d := a.Slerp(b, t)
	e := b.Slerp(c, t)
	return d.Slerp(e, t).Normalize()
}

// LerpNormal interpolates two normals and renormalizes, falling back to up.
func LerpNormal(n0, n1 math.Vec3, t float32) math.Vec3 {
	return n0.Lerp(n1, math.Clamp01(t)).NormalizeOr(math.Up)
}
