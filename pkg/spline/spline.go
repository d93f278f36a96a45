// Package spline implements a piecewise cubic Bezier spline with tangent
// handle alignment, arc-length sampling and nearest-point queries.
//
// Control points are stored in a single array. Every index that is a multiple
// of 3 is an anchor that the curve passes through; its neighbors are handles.
// A spline with n curves has 3n+1 control points. Positions are kept in the
// spline's local frame; evaluation methods return world-space values through
// the spline's Transform.
//
// A Spline is not safe for concurrent mutation. Callers must serialize edits.
package spline

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Faultbox/midgard-spline/pkg/curve"
	"github.com/Faultbox/midgard-spline/pkg/math"
)

// ErrPrecondition is wrapped by every error caused by an invalid request.
// The spline is left unchanged when one is returned.
var ErrPrecondition = errors.New("spline: precondition violated")

// Precondition errors.
var (
	ErrLastCurve         = fmt.Errorf("%w: spline must keep at least one curve", ErrPrecondition)
	ErrIndexOutOfRange   = fmt.Errorf("%w: control point index out of range", ErrPrecondition)
	ErrNotAnchor         = fmt.Errorf("%w: index is not an anchor", ErrPrecondition)
	ErrEndpointAnchor    = fmt.Errorf("%w: operation needs an interior anchor", ErrPrecondition)
	ErrLooped            = fmt.Errorf("%w: operation is not valid on a looped spline", ErrPrecondition)
	ErrPointCount        = fmt.Errorf("%w: control point count must be 3n+1 with n >= 1", ErrPrecondition)
	ErrNilSpline         = fmt.Errorf("%w: nil or self spline", ErrPrecondition)
	ErrInvalidSpacing    = fmt.Errorf("%w: spacing must be positive", ErrPrecondition)
	ErrInvalidResolution = fmt.Errorf("%w: resolution must be positive", ErrPrecondition)
)

// DefaultTension is the handle length factor used by Automatic anchors.
const DefaultTension = 0.33

// Transform places the spline's local frame in the world.
type Transform struct {
	Position math.Vec3 `yaml:"position"`
	Rotation math.Quat `yaml:"rotation"`
}

// IdentityTransform returns a transform that leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{Rotation: math.QuatIdentity()}
}

// Apply maps a local point to world space.
func (t Transform) Apply(p math.Vec3) math.Vec3 {
	return t.Rotation.Rotate(p).Add(t.Position)
}

// ApplyDirection maps a local direction to world space.
func (t Transform) ApplyDirection(d math.Vec3) math.Vec3 {
	return t.Rotation.Rotate(d)
}

// Inverse maps a world point into the local frame.
func (t Transform) Inverse(p math.Vec3) math.Vec3 {
	return t.Rotation.Conjugate().Rotate(p.Sub(t.Position))
}

// InverseDirection maps a world direction into the local frame.
func (t Transform) InverseDirection(d math.Vec3) math.Vec3 {
	return t.Rotation.Conjugate().Rotate(d)
}

// Spline is a chain of cubic Bezier curves sharing anchors.
type Spline struct {
	id        uuid.UUID
	points    []math.Vec3
	rotations []math.Quat
	modes     []AlignmentMode // one per anchor
	normals   []math.Vec3     // one per anchor
	loop      bool
	static    bool
	tension   float32
	transform Transform

	lut       *lengthTable
	observers []observer
	nextObsID int
}

// New returns a single straight curve of length 3 running along +Z.
func New() *Spline {
	s, _ := NewFromPoints([]math.Vec3{
		{Z: 0}, {Z: 1}, {Z: 2}, {Z: 3},
	})
	return s
}

// NewFromPoints builds a spline from raw control points in local space.
// All anchors start in Free mode with an up normal and identity rotation.
func NewFromPoints(points []math.Vec3) (*Spline, error) {
	if len(points) < 4 || (len(points)-1)%3 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrPointCount, len(points))
	}
	anchors := (len(points)-1)/3 + 1
	s := &Spline{
		id:        uuid.New(),
		points:    append([]math.Vec3(nil), points...),
		rotations: make([]math.Quat, len(points)),
		modes:     make([]AlignmentMode, anchors),
		normals:   make([]math.Vec3, anchors),
		tension:   DefaultTension,
		transform: IdentityTransform(),
	}
	for i := range s.rotations {
		s.rotations[i] = math.QuatIdentity()
	}
	for i := range s.normals {
		s.normals[i] = math.Up
	}
	return s, nil
}

// ID returns the spline's stable identifier.
func (s *Spline) ID() uuid.UUID { return s.id }

// CurveCount returns the number of cubic segments.
func (s *Spline) CurveCount() int { return (len(s.points) - 1) / 3 }

// ControlPointCount returns the number of control points (3*CurveCount+1).
func (s *Spline) ControlPointCount() int { return len(s.points) }

// AnchorCount returns the number of anchors, counting a loop's seam twice.
func (s *Spline) AnchorCount() int { return len(s.modes) }

// Loop reports whether the last anchor is welded to the first.
func (s *Spline) Loop() bool { return s.loop }

// Static reports whether arc-length data is cached between queries.
func (s *Spline) Static() bool { return s.static }

// Tension returns the Automatic handle length factor.
func (s *Spline) Tension() float32 { return s.tension }

// Transform returns the local-to-world transform.
func (s *Spline) Transform() Transform { return s.transform }

// IsAnchor reports whether index is an anchor.
func IsAnchor(index int) bool { return index%3 == 0 }

// AnchorOf returns the anchor a control point belongs to.
func (s *Spline) AnchorOf(index int) int {
	switch index % 3 {
	case 1:
		return index - 1
	case 2:
		return index + 1
	default:
		return index
	}
}

func (s *Spline) validIndex(index int) error {
	if index < 0 || index >= len(s.points) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, len(s.points))
	}
	return nil
}

// ControlPoint returns a control point in local space.
func (s *Spline) ControlPoint(index int) math.Vec3 { return s.points[index] }

// ControlPointWorld returns a control point in world space.
func (s *Spline) ControlPointWorld(index int) math.Vec3 {
	return s.transform.Apply(s.points[index])
}

// ControlPoints returns a copy of all local control points.
func (s *Spline) ControlPoints() []math.Vec3 {
	return append([]math.Vec3(nil), s.points...)
}

// ControlPointRotation returns the local rotation stored at a control point.
func (s *Spline) ControlPointRotation(index int) math.Quat { return s.rotations[index] }

// Normal returns the normal of the anchor owning index.
func (s *Spline) Normal(index int) math.Vec3 { return s.normals[s.AnchorOf(index)/3] }

// Mode returns the alignment mode of the anchor owning index.
func (s *Spline) Mode(index int) AlignmentMode { return s.modes[s.AnchorOf(index)/3] }

// Curve returns segment i in local space.
func (s *Spline) Curve(i int) curve.Bezier {
	j := i * 3
	return curve.Bezier{P0: s.points[j], P1: s.points[j+1], P2: s.points[j+2], P3: s.points[j+3]}
}

// worldCurve returns segment i in world space. Rigid transforms preserve
// lengths, so segment-level estimates agree with local ones.
func (s *Spline) worldCurve(i int) curve.Bezier {
	c := s.Curve(i)
	return curve.Bezier{
		P0: s.transform.Apply(c.P0),
		P1: s.transform.Apply(c.P1),
		P2: s.transform.Apply(c.P2),
		P3: s.transform.Apply(c.P3),
	}
}

// curveAt maps a normalized parameter onto a curve index and local t by
// linear subdivision. t=1 lands on the end of the last curve.
func (s *Spline) curveAt(t float32) (int, float32) {
	n := s.CurveCount()
	if t >= 1 {
		return n - 1, 1
	}
	if t <= 0 {
		return 0, 0
	}
	t *= float32(n)
	i := int(t)
	if i >= n {
		return n - 1, 1
	}
	return i, t - float32(i)
}

// GetPoint returns the world position at normalized parameter t.
func (s *Spline) GetPoint(t float32) math.Vec3 {
	i, lt := s.curveAt(t)
	return s.pointOn(i, lt)
}

func (s *Spline) pointOn(i int, lt float32) math.Vec3 {
	return s.transform.Apply(s.Curve(i).Position(lt))
}

// GetVelocity returns the world-space derivative with respect to local t.
func (s *Spline) GetVelocity(t float32) math.Vec3 {
	i, lt := s.curveAt(t)
	return s.transform.ApplyDirection(s.Curve(i).Velocity(lt))
}

// GetDirection returns the unit world tangent at t.
func (s *Spline) GetDirection(t float32) math.Vec3 {
	i, lt := s.curveAt(t)
	return s.directionOn(i, lt)
}

func (s *Spline) directionOn(i int, lt float32) math.Vec3 {
	return s.transform.ApplyDirection(s.Curve(i).Tangent(lt))
}

// GetRotation interpolates the control point rotations at t in world space.
func (s *Spline) GetRotation(t float32) math.Quat {
	i, lt := s.curveAt(t)
	return s.rotationOn(i, lt)
}

func (s *Spline) rotationOn(i int, lt float32) math.Quat {
	j := i * 3
	r := curve.RotationAt(s.rotations[j], s.rotations[j+1], s.rotations[j+2], s.rotations[j+3], lt)
	return s.transform.Rotation.Mul(r).Normalize()
}

// GetNormal interpolates the anchor normals at t in world space.
func (s *Spline) GetNormal(t float32) math.Vec3 {
	i, lt := s.curveAt(t)
	return s.normalOn(i, lt)
}

func (s *Spline) normalOn(i int, lt float32) math.Vec3 {
	n := curve.LerpNormal(s.normals[i], s.normals[i+1], lt)
	return s.transform.ApplyDirection(n)
}

// Curvature returns the curvature of the segment under t.
func (s *Spline) Curvature(t float32) float32 {
	i, lt := s.curveAt(t)
	return s.Curve(i).Curvature(lt)
}

// GetOrientedPoint returns the world frame at t. T and CurveIndex are set;
// Distance is left zero.
func (s *Spline) GetOrientedPoint(t float32) OrientedPoint {
	i, lt := s.curveAt(t)
	return s.frameOn(i, lt)
}

// frameOn builds the frame on curve i at local parameter lt. The up vector
// is the interpolated anchor normal turned by the interpolated control
// rotation, then made orthogonal to the tangent.
func (s *Spline) frameOn(i int, lt float32) OrientedPoint {
	j := i * 3
	forward := s.directionOn(i, lt)
	local := curve.RotationAt(s.rotations[j], s.rotations[j+1], s.rotations[j+2], s.rotations[j+3], lt)
	up := s.transform.ApplyDirection(local.Rotate(curve.LerpNormal(s.normals[i], s.normals[i+1], lt)))
	return newFrame(s.pointOn(i, lt), forward, up, (float32(i)+lt)/float32(s.CurveCount()), i)
}

func newFrame(pos, forward, up math.Vec3, t float32, curveIndex int) OrientedPoint {
	rot := math.LookRotation(forward, up)
	return OrientedPoint{
		Position:   pos,
		Rotation:   rot,
		Forward:    rot.Forward(),
		Up:         rot.Up(),
		T:          t,
		CurveIndex: curveIndex,
	}
}

// Bounds returns the world-space box enclosing all control points, which
// also encloses the curve.
func (s *Spline) Bounds() (lo, hi math.Vec3) {
	lo = s.ControlPointWorld(0)
	hi = lo
	for i := 1; i < len(s.points); i++ {
		p := s.ControlPointWorld(i)
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return lo, hi
}

// Clone returns a deep copy with a new ID and no observers.
func (s *Spline) Clone() *Spline {
	return &Spline{
		id:        uuid.New(),
		points:    append([]math.Vec3(nil), s.points...),
		rotations: append([]math.Quat(nil), s.rotations...),
		modes:     append([]AlignmentMode(nil), s.modes...),
		normals:   append([]math.Vec3(nil), s.normals...),
		loop:      s.loop,
		static:    s.static,
		tension:   s.tension,
		transform: s.transform,
	}
}
