package spline

import (
	"fmt"
	"slices"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-spline/pkg/math"
)

// Parameterization selects how a normalized t maps onto the curves.
type Parameterization uint8

const (
	// ParamLinear gives every curve an equal share of [0,1].
	ParamLinear Parameterization = iota
	// ParamArcLength makes t proportional to distance travelled.
	ParamArcLength
)

const (
	// lutSamplesPerCurve is the arc-length table density.
	lutSamplesPerCurve = 32
	// endSnapFraction is how close, as a fraction of spacing, the last
	// emitted point must be to the end to be snapped onto it.
	endSnapFraction = 0.1
	// redistributeCount is how many trailing points absorb a short last gap.
	redistributeCount = 5
)

// OrientedPoint is a position with a full frame on the spline.
type OrientedPoint struct {
	Position   math.Vec3
	Rotation   math.Quat
	Forward    math.Vec3
	Up         math.Vec3
	T          float32 // normalized linear parameter
	CurveIndex int
	Distance   float32 // arc length from the start
}

// HeightField projects points onto a surface. ok is false when nothing is
// hit within maxDistance.
type HeightField interface {
	ProjectOntoSurface(p math.Vec3, maxDistance float32) (hit math.Vec3, ok bool)
}

// lengthTable holds cumulative arc length at evenly spaced local t.
type lengthTable struct {
	perCurve int
	dist     []float32
}

// lengths returns the arc-length table, building it when missing. Only a
// static spline keeps the table; edits drop it either way.
func (s *Spline) lengths() *lengthTable {
	if s.lut != nil {
		return s.lut
	}
	n := s.CurveCount()
	t := &lengthTable{
		perCurve: lutSamplesPerCurve,
		dist:     make([]float32, n*lutSamplesPerCurve+1),
	}
	var acc float32
	prev := s.points[0]
	k := 1
	for c := 0; c < n; c++ {
		cv := s.Curve(c)
		for j := 1; j <= lutSamplesPerCurve; j++ {
			p := cv.Position(float32(j) / lutSamplesPerCurve)
			acc += prev.Distance(p)
			t.dist[k] = acc
			prev = p
			k++
		}
	}
	if s.static {
		s.lut = t
	}
	return t
}

func (t *lengthTable) total() float32 { return t.dist[len(t.dist)-1] }

// locate maps a distance onto a curve index and local t.
func (t *lengthTable) locate(d float32) (int, float32) {
	total := t.total()
	if total <= 0 || d <= 0 {
		return 0, 0
	}
	if d >= total {
		return (len(t.dist)-1)/t.perCurve - 1, 1
	}
	j, _ := slices.BinarySearch(t.dist, d)
	if j == 0 {
		return 0, 0
	}
	seg := j - 1
	var f float32
	if span := t.dist[j] - t.dist[seg]; span > 0 {
		f = (d - t.dist[seg]) / span
	}
	return seg / t.perCurve, (float32(seg%t.perCurve) + f) / float32(t.perCurve)
}

// Length returns the arc length of the whole spline.
func (s *Spline) Length() float32 {
	return s.lengths().total()
}

// CurveT maps a normalized parameter onto a curve index and local t.
func (s *Spline) CurveT(t float32, param Parameterization) (int, float32) {
	if param == ParamArcLength {
		tab := s.lengths()
		return tab.locate(math.Clamp01(t) * tab.total())
	}
	return s.curveAt(t)
}

// DistanceToT converts an arc length into the linear parameter at that
// distance.
func (s *Spline) DistanceToT(d float32) float32 {
	c, lt := s.lengths().locate(d)
	return (float32(c) + lt) / float32(s.CurveCount())
}

// GetPointUniform returns the world position at arc-length parameter t.
func (s *Spline) GetPointUniform(t float32) math.Vec3 {
	c, lt := s.CurveT(t, ParamArcLength)
	return s.pointOn(c, lt)
}

// GetOrientedPointUniform returns the world frame at arc-length parameter t.
func (s *Spline) GetOrientedPointUniform(t float32) OrientedPoint {
	return s.GetOrientedPointAtDistance(math.Clamp01(t) * s.Length())
}

// GetOrientedPointAtDistance returns the frame d units along the spline.
func (s *Spline) GetOrientedPointAtDistance(d float32) OrientedPoint {
	tab := s.lengths()
	d = math.Clamp(d, 0, tab.total())
	c, lt := tab.locate(d)
	f := s.frameOn(c, lt)
	f.Distance = d
	return f
}

// SampleOption configures CalculateOrientedPoints.
type SampleOption func(*sampleOptions)

type sampleOptions struct {
	surface     HeightField
	maxDistance float32
}

// WithProjection drops every sample onto a height field and re-aims each
// frame along the projected path.
func WithProjection(surface HeightField, maxDistance float32) SampleOption {
	return func(o *sampleOptions) {
		o.surface = surface
		o.maxDistance = maxDistance
	}
}

type fineSample struct {
	curve int
	t     float32
	dist  float32
}

// CalculateOrientedPoints walks the spline and emits a frame every spacing
// units of arc length. resolution is the number of fine steps per unit of
// estimated curve length used for the walk.
//
// The first frame sits on the start. If the last emitted frame lies within
// 10% of spacing from the end it is moved onto the end; otherwise a frame
// is appended at the end and the short final gap is spread evenly over the
// last few gaps.
func (s *Spline) CalculateOrientedPoints(spacing, resolution float32, opts ...SampleOption) ([]OrientedPoint, error) {
	if !(spacing > 0) || math32.IsInf(spacing, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpacing, spacing)
	}
	if !(resolution > 0) || math32.IsInf(resolution, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResolution, resolution)
	}
	var o sampleOptions
	for _, opt := range opts {
		opt(&o)
	}

	samples := s.fineWalk(resolution)
	total := samples[len(samples)-1].dist

	out := []OrientedPoint{s.frameOn(0, 0)}
	var exceeded float32
	for i := 1; i < len(samples); i++ {
		a, b := samples[i-1], samples[i]
		seg := b.dist - a.dist
		if seg <= 0 {
			continue
		}
		exceeded += seg
		for exceeded >= spacing {
			over := exceeded - spacing
			out = append(out, s.frameBetween(a, b, 1-over/seg, b.dist-over))
			exceeded = over
		}
	}

	end := s.frameOn(s.CurveCount()-1, 1)
	end.Distance = total
	remaining := total - out[len(out)-1].Distance
	switch {
	case len(out) > 1 && remaining <= spacing*endSnapFraction:
		out[len(out)-1] = end
	case remaining > 0 || len(out) == 1:
		out = append(out, end)
		s.redistribute(out, samples)
	}

	if o.surface != nil {
		project(out, o.surface, o.maxDistance)
	}
	return out, nil
}

// fineWalk samples every curve at a step count proportional to its
// estimated length and accumulates world-space distance.
func (s *Spline) fineWalk(resolution float32) []fineSample {
	samples := []fineSample{{}}
	prev := s.pointOn(0, 0)
	var acc float32
	for c := 0; c < s.CurveCount(); c++ {
		wc := s.worldCurve(c)
		steps := int(math32.Ceil(wc.EstimatedLength() * resolution))
		if steps < 1 {
			steps = 1
		}
		for k := 1; k <= steps; k++ {
			lt := float32(k) / float32(steps)
			p := wc.Position(lt)
			acc += prev.Distance(p)
			samples = append(samples, fineSample{curve: c, t: lt, dist: acc})
			prev = p
		}
	}
	return samples
}

// frameBetween returns the frame a fraction f of the way from fine sample a
// to b. A pair straddling a curve boundary starts at t=0 of b's curve.
func (s *Spline) frameBetween(a, b fineSample, f, dist float32) OrientedPoint {
	at := a.t
	if a.curve != b.curve {
		at = 0
	}
	fp := s.frameOn(b.curve, math.Lerp(at, b.t, math.Clamp01(f)))
	fp.Distance = dist
	return fp
}

func (s *Spline) frameAtDistance(samples []fineSample, d float32) OrientedPoint {
	j, _ := slices.BinarySearchFunc(samples, d, func(fs fineSample, d float32) int {
		switch {
		case fs.dist < d:
			return -1
		case fs.dist > d:
			return 1
		}
		return 0
	})
	if j <= 0 {
		return s.frameOn(0, 0)
	}
	if j >= len(samples) {
		j = len(samples) - 1
	}
	a, b := samples[j-1], samples[j]
	var f float32
	if seg := b.dist - a.dist; seg > 0 {
		f = (d - a.dist) / seg
	}
	return s.frameBetween(a, b, f, d)
}

// redistribute evens out the gaps between the last few interior frames and
// the freshly appended end frame. The start frame never moves.
func (s *Spline) redistribute(out []OrientedPoint, samples []fineSample) {
	last := len(out) - 1
	k := min(redistributeCount, last-1)
	if k <= 0 {
		return
	}
	base := out[last-k-1].Distance
	gap := (out[last].Distance - base) / float32(k+1)
	for j := 1; j <= k; j++ {
		out[last-k-1+j] = s.frameAtDistance(samples, base+gap*float32(j))
	}
}

// project moves frames onto the surface and re-aims each forward along the
// delta from the previous projected point.
func project(out []OrientedPoint, surface HeightField, maxDistance float32) {
	for i := range out {
		if hit, ok := surface.ProjectOntoSurface(out[i].Position, maxDistance); ok {
			out[i].Position = hit
		}
	}
	if len(out) < 2 {
		return
	}
	for i := range out {
		var delta math.Vec3
		if i == 0 {
			delta = out[1].Position.Sub(out[0].Position)
		} else {
			delta = out[i].Position.Sub(out[i-1].Position)
		}
		p := out[i]
		f := newFrame(p.Position, delta.NormalizeOr(p.Forward), p.Up, p.T, p.CurveIndex)
		f.Distance = p.Distance
		out[i] = f
	}
}
