// Package fit turns point sequences into splines: a least-squares cubic
// Bezier fitter and a Ramer-Douglas-Peucker polyline simplifier.
package fit

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-spline/pkg/curve"
	"github.com/Faultbox/midgard-spline/pkg/math"
	"github.com/Faultbox/midgard-spline/pkg/spline"
)

const (
	// maxReparameterize caps Newton-Raphson passes per segment.
	maxReparameterize = 4
	// reparameterizeFactor widens the acceptance band in which
	// reparameterization is attempted before splitting.
	reparameterizeFactor = 4
	// seamRounding is the grid on which closed-path endpoints are compared.
	seamRounding = 0.01
)

// Curve fits a spline through points so that every input lies within
// maxError of the curve. Consecutive duplicate points are dropped first.
// With closed set and endpoints equal to within 0.01 the result is a loop.
// Interior anchors use Aligned mode.
//
// ok is false only when fewer than two distinct points remain.
func Curve(points []math.Vec3, maxError float32, closed bool) (*spline.Spline, bool) {
	d := dedupe(points)
	if len(d) < 2 {
		return nil, false
	}

	loop := closed && len(d) > 2 && sameOnGrid(d[0], d[len(d)-1])
	if loop {
		d[len(d)-1] = d[0]
	}

	n := len(d)
	tHat1 := d[1].Sub(d[0]).Normalize()
	tHat2 := d[n-2].Sub(d[n-1]).Normalize()
	if loop && n > 3 {
		// Both ends share the tangent across the seam
		if seam := d[1].Sub(d[n-2]); seam.Length() > math.Epsilon {
			tHat1 = seam.Normalize()
			tHat2 = tHat1.Neg()
		}
	}

	f := fitter{d: d, maxError: maxError}
	f.fitCubic(0, n-1, tHat1, tHat2)

	ctrl := make([]math.Vec3, 0, len(f.out)*3+1)
	ctrl = append(ctrl, f.out[0].P0)
	for _, b := range f.out {
		ctrl = append(ctrl, b.P1, b.P2, b.P3)
	}
	s, err := spline.NewFromPoints(ctrl)
	if err != nil {
		return nil, false
	}
	for a := 3; a < len(ctrl)-1; a += 3 {
		_ = s.SetMode(a, spline.ModeAligned)
	}
	if loop {
		_ = s.SetMode(0, spline.ModeAligned)
		s.SetLoop(true)
	}
	return s, true
}

func dedupe(points []math.Vec3) []math.Vec3 {
	out := make([]math.Vec3, 0, len(points))
	for _, p := range points {
		if p.IsNaN() {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Distance(p) < math.Epsilon {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sameOnGrid(a, b math.Vec3) bool {
	r := func(v float32) float32 { return math32.Round(v / seamRounding) }
	return r(a.X) == r(b.X) && r(a.Y) == r(b.Y) && r(a.Z) == r(b.Z)
}

type fitter struct {
	d        []math.Vec3
	maxError float32
	out      []curve.Bezier
}

// fitCubic fits d[first..last] with end tangents tHat1 (leaving first) and
// tHat2 (leaving last backwards), splitting at the worst point until every
// piece is within tolerance.
func (f *fitter) fitCubic(first, last int, tHat1, tHat2 math.Vec3) {
	d := f.d
	nPts := last - first + 1

	if nPts == 2 {
		dist := d[first].Distance(d[last]) / 3
		f.out = append(f.out, curve.Bezier{
			P0: d[first],
			P1: d[first].Add(tHat1.Scale(dist)),
			P2: d[last].Add(tHat2.Scale(dist)),
			P3: d[last],
		})
		return
	}

	u := f.chordLengthParameterize(first, last)
	bez := f.generateBezier(first, last, u, tHat1, tHat2)
	maxErr, split := f.computeMaxError(first, last, bez, u)
	if maxErr < f.maxError {
		f.out = append(f.out, bez)
		return
	}

	if maxErr < f.maxError*reparameterizeFactor {
		for i := 0; i < maxReparameterize; i++ {
			u = f.reparameterize(first, last, u, bez)
			bez = f.generateBezier(first, last, u, tHat1, tHat2)
			maxErr, split = f.computeMaxError(first, last, bez, u)
			if maxErr < f.maxError {
				f.out = append(f.out, bez)
				return
			}
		}
	}

	if nPts == 3 {
		split = first + 1
	}
	split = max(first+1, min(split, last-1))

	center := d[split-1].Sub(d[split+1])
	if center.Length() < math.Epsilon {
		center = d[split].Sub(d[split+1])
	}
	tHatCenter := center.NormalizeOr(tHat2)
	f.fitCubic(first, split, tHat1, tHatCenter)
	f.fitCubic(split, last, tHatCenter.Neg(), tHat2)
}

func (f *fitter) chordLengthParameterize(first, last int) []float32 {
	u := make([]float32, last-first+1)
	for i := first + 1; i <= last; i++ {
		u[i-first] = u[i-first-1] + f.d[i].Distance(f.d[i-1])
	}
	total := u[len(u)-1]
	for i := range u {
		if total > 0 {
			u[i] /= total
		} else {
			u[i] = float32(i) / float32(len(u)-1)
		}
	}
	return u
}

// generateBezier solves the 2x2 normal equations for the handle lengths
// along the fixed end tangents. Negative or degenerate lengths become 0.
func (f *fitter) generateBezier(first, last int, u []float32, tHat1, tHat2 math.Vec3) curve.Bezier {
	d := f.d
	p0, p3 := d[first], d[last]

	var c00, c01, c11, x0, x1 float32
	for i, t := range u {
		mt := 1 - t
		b0 := mt * mt * mt
		b1 := 3 * mt * mt * t
		b2 := 3 * mt * t * t
		b3 := t * t * t

		a0 := tHat1.Scale(b1)
		a1 := tHat2.Scale(b2)
		c00 += a0.Dot(a0)
		c01 += a0.Dot(a1)
		c11 += a1.Dot(a1)

		tmp := d[first+i].Sub(p0.Scale(b0 + b1)).Sub(p3.Scale(b2 + b3))
		x0 += a0.Dot(tmp)
		x1 += a1.Dot(tmp)
	}

	var alpha1, alpha2 float32
	det := c00*c11 - c01*c01
	if math32.Abs(det) > math.Epsilon {
		alpha1 = (x0*c11 - x1*c01) / det
		alpha2 = (c00*x1 - c01*x0) / det
	}
	if !(alpha1 > 0) {
		alpha1 = 0
	}
	if !(alpha2 > 0) {
		alpha2 = 0
	}

	return curve.Bezier{
		P0: p0,
		P1: p0.Add(tHat1.Scale(alpha1)),
		P2: p3.Add(tHat2.Scale(alpha2)),
		P3: p3,
	}
}

// computeMaxError returns the largest distance between an input point and
// the curve at its parameter, and that point's index.
func (f *fitter) computeMaxError(first, last int, bez curve.Bezier, u []float32) (float32, int) {
	split := (last-first+1)/2 + first
	var maxDist float32
	for i := first + 1; i < last; i++ {
		dist := bez.Position(u[i-first]).Distance(f.d[i])
		if dist >= maxDist {
			maxDist = dist
			split = i
		}
	}
	return maxDist, split
}

func (f *fitter) reparameterize(first, last int, u []float32, bez curve.Bezier) []float32 {
	out := make([]float32, len(u))
	for i := range u {
		out[i] = newtonRaphson(bez, f.d[first+i], u[i])
	}
	return out
}

// newtonRaphson improves the parameter of p on q by one Newton step on the
// derivative of the squared distance.
func newtonRaphson(q curve.Bezier, p math.Vec3, u float32) float32 {
	diff := q.Position(u).Sub(p)
	q1 := q.Velocity(u)
	q2 := q.Acceleration(u)
	num := diff.Dot(q1)
	den := q1.Dot(q1) + diff.Dot(q2)
	if math32.Abs(den) < math.Epsilon {
		return u
	}
	next := u - num/den
	if math32.IsNaN(next) {
		return u
	}
	return math.Clamp01(next)
}
