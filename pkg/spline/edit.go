package spline

import (
	"fmt"
	"slices"

	"github.com/chewxy/math32"
	"github.com/google/uuid"

	"github.com/Faultbox/midgard-spline/pkg/curve"
	"github.com/Faultbox/midgard-spline/pkg/math"
)

// dissolveClamp caps a rebalanced handle at this fraction of the new chord
// so the two handles of the merged curve cannot cross.
const dissolveClamp = 0.5

// SetControlPoint moves a control point given in local space.
// Moving an anchor carries both of its handles along. Moving a handle of an
// Automatic anchor switches that anchor to Aligned.
func (s *Spline) SetControlPoint(index int, p math.Vec3) error {
	if err := s.validIndex(index); err != nil {
		return err
	}
	if IsAnchor(index) {
		a := s.canonicalAnchor(index)
		delta := p.Sub(s.points[a])
		prev, next := s.handles(a)
		s.points[a] = p
		if prev >= 0 {
			s.points[prev] = s.points[prev].Add(delta)
		}
		if next >= 0 {
			s.points[next] = s.points[next].Add(delta)
		}
	} else {
		s.points[index] = p
	}
	s.enforce(index)
	s.refreshAutomatic()
	s.changed(ChangePoint, index)
	return nil
}

// SetControlPointWorld moves a control point given in world space.
func (s *Spline) SetControlPointWorld(index int, p math.Vec3) error {
	return s.SetControlPoint(index, s.transform.Inverse(p))
}

// SetControlPointRotation sets the local rotation at a control point.
// Handles of a non-Free anchor share the anchor's rotation, so setting
// either handle rotates all three.
func (s *Spline) SetControlPointRotation(index int, r math.Quat) error {
	if err := s.validIndex(index); err != nil {
		return err
	}
	r = r.Normalize()
	a := s.canonicalAnchor(s.AnchorOf(index))
	if IsAnchor(index) || s.modes[a/3] != ModeFree {
		s.rotations[a] = r
		s.syncHandleRotations(a)
	} else {
		s.rotations[index] = r
	}
	s.syncSeam()
	s.changed(ChangeRotation, index)
	return nil
}

// SetNormal sets the normal of the anchor owning index.
func (s *Spline) SetNormal(index int, n math.Vec3) error {
	if err := s.validIndex(index); err != nil {
		return err
	}
	a := s.canonicalAnchor(s.AnchorOf(index))
	s.normals[a/3] = n.NormalizeOr(math.Up)
	s.syncSeam()
	s.changed(ChangeNormal, index)
	return nil
}

// SetMode changes the alignment mode of the anchor owning index and
// immediately re-establishes its constraint.
func (s *Spline) SetMode(index int, mode AlignmentMode) error {
	if err := s.validIndex(index); err != nil {
		return err
	}
	if mode > ModeAutomatic {
		return fmt.Errorf("%w: unknown mode %d", ErrPrecondition, mode)
	}
	a := s.canonicalAnchor(s.AnchorOf(index))
	s.setModeRaw(a, mode)
	s.enforce(a)
	s.syncHandleRotations(a)
	s.refreshAutomatic()
	s.changed(ChangeMode, index)
	return nil
}

// SetStatic toggles arc-length caching. A static spline keeps its length
// table until the next edit.
func (s *Spline) SetStatic(static bool) {
	s.static = static
	s.changed(ChangeSettings, -1)
}

// SetTension sets the Automatic handle factor and re-derives those handles.
func (s *Spline) SetTension(tension float32) {
	s.tension = math.Clamp01(tension)
	s.refreshAutomatic()
	s.changed(ChangeSettings, -1)
}

// SetTransform replaces the local-to-world transform.
func (s *Spline) SetTransform(t Transform) {
	t.Rotation = t.Rotation.Normalize()
	s.transform = t
	s.changed(ChangeTransform, -1)
}

// SetLoop welds or unwelds the ends. Closing moves the last anchor onto the
// first and regenerates the seam handle from the wrap-around tangent.
// Opening straightens the closing curve.
func (s *Spline) SetLoop(loop bool) {
	if loop == s.loop {
		return
	}
	s.loop = loop
	if loop {
		s.closeLoop()
	} else {
		s.resetLastCurve()
	}
	s.settle()
	s.changed(ChangeLoop, -1)
}

func (s *Spline) closeLoop() {
	last := len(s.points) - 1
	out := s.points[1].Sub(s.points[0])
	reach := s.points[last-1].Distance(s.points[last])
	if reach < math.Epsilon {
		reach = out.Length()
	}
	s.points[last] = s.points[0]
	s.points[last-1] = s.points[0].Sub(out.NormalizeOr(math.Forward).Scale(reach))
	s.syncSeam()
}

// ResetLastCurve straightens the final curve between its anchors.
func (s *Spline) ResetLastCurve() {
	s.resetLastCurve()
	s.settle()
	s.changed(ChangePoint, len(s.points)-1)
}

func (s *Spline) resetLastCurve() {
	last := len(s.points) - 1
	p0, p3 := s.points[last-3], s.points[last]
	s.points[last-2] = p0.Lerp(p3, 1.0/3)
	s.points[last-1] = p0.Lerp(p3, 2.0/3)
	s.enforce(last - 2)
}

// AddCurve extends an open spline by one curve continuing the last tangent
// with the length of the last curve's chord. On a loop it splits the
// closing curve instead so the seam stays welded.
func (s *Spline) AddCurve() {
	last := len(s.points) - 1
	if s.loop {
		s.subdivide(last - 3)
		s.settle()
		s.changed(ChangeTopology, last)
		return
	}

	p := s.points[last]
	dir := p.Sub(s.points[last-1])
	if dir.Length() < math.Epsilon {
		dir = p.Sub(s.points[last-3])
	}
	dir = dir.NormalizeOr(math.Forward)
	length := s.points[last-3].Distance(p)
	if length < math.Epsilon {
		length = 1
	}

	s.appendCurve(
		p.Add(dir.Scale(length/3)),
		p.Add(dir.Scale(2*length/3)),
		p.Add(dir.Scale(length)),
		s.normals[len(s.normals)-1],
	)
	s.settle()
	s.changed(ChangeTopology, len(s.points)-1)
}

// AddCurveTo appends a curve ending at a world-space target. The outgoing
// handle continues the current heading. The incoming handle depends on the
// turn angle between heading and target: up to 45 degrees it points back
// along the chord, from 90 degrees it sits to the side where a constant
// bend would arrive from, and in between it blends by (angle mod 45)/45.
func (s *Spline) AddCurveTo(target, up math.Vec3) error {
	if s.loop {
		return ErrLooped
	}
	target = s.transform.Inverse(target)
	up = s.transform.InverseDirection(up).NormalizeOr(math.Up)

	last := len(s.points) - 1
	p := s.points[last]
	heading := p.Sub(s.points[last-1])
	if heading.Length() < math.Epsilon {
		heading = p.Sub(s.points[last-3])
	}
	heading = heading.NormalizeOr(math.Forward)

	chord := target.Sub(p)
	dist := chord.Length()
	if dist < math.Epsilon {
		return fmt.Errorf("%w: target coincides with the last anchor", ErrPrecondition)
	}
	toward := chord.Scale(1 / dist)
	angle := heading.Angle(toward)
	reach := dist / 3

	back := toward.Neg()
	arrive := toward.Scale(2 * heading.Dot(toward)).Sub(heading)
	side := arrive.ProjectOnPlane(up).NormalizeOr(toward).Neg()

	var in math.Vec3
	switch {
	case angle <= 45:
		in = back
	case angle < 90:
		blend := math32.Mod(angle, 45) / 45
		in = back.Lerp(side, blend).NormalizeOr(back)
	default:
		in = side
	}

	s.appendCurve(p.Add(heading.Scale(reach)), target.Add(in.Scale(reach)), target, up)
	s.settle()
	s.changed(ChangeTopology, len(s.points)-1)
	return nil
}

func (s *Spline) appendCurve(h1, h2, anchor, normal math.Vec3) {
	last := len(s.points) - 1
	r := s.rotations[last]
	s.points = append(s.points, h1, h2, anchor)
	s.rotations = append(s.rotations, r, r, r)
	s.modes = append(s.modes, s.modes[len(s.modes)-1])
	s.normals = append(s.normals, normal)
}

// RemoveCurve drops the last curve. A loop re-welds its new last anchor.
func (s *Spline) RemoveCurve() error {
	if s.CurveCount() <= 1 {
		return ErrLastCurve
	}
	n := len(s.points) - 3
	s.points = s.points[:n]
	s.rotations = s.rotations[:n]
	s.modes = s.modes[:len(s.modes)-1]
	s.normals = s.normals[:len(s.normals)-1]
	if s.loop {
		s.closeLoop()
	}
	s.settle()
	s.changed(ChangeTopology, n-1)
	return nil
}

func (s *Spline) checkAnchor(anchor int) error {
	if err := s.validIndex(anchor); err != nil {
		return err
	}
	if !IsAnchor(anchor) {
		return fmt.Errorf("%w: %d", ErrNotAnchor, anchor)
	}
	return nil
}

// SubdivideCurve inserts an anchor at the parametric midpoint of the curve
// starting at anchor. The new handles point along the blend of the
// directions to both neighbors, each half the mean control polygon leg.
// The outer handles are halved.
func (s *Spline) SubdivideCurve(anchor int) error {
	if err := s.checkAnchor(anchor); err != nil {
		return err
	}
	if anchor >= len(s.points)-1 {
		return fmt.Errorf("%w: anchor %d starts no curve", ErrEndpointAnchor, anchor)
	}
	s.subdivide(anchor)
	s.settle()
	s.changed(ChangeTopology, anchor+3)
	return nil
}

func (s *Spline) subdivide(a int) {
	i := a / 3
	c := s.Curve(i)
	mid := c.Position(0.5)
	reach := (c.P0.Distance(c.P1) + c.P1.Distance(c.P2) + c.P2.Distance(c.P3)) / 6

	dir := mid.Sub(c.P0).Normalize().Add(c.P3.Sub(mid).Normalize())
	if dir.Length() < math.Epsilon {
		dir = c.Tangent(0.5)
	}
	dir = dir.Normalize()

	rot := curve.RotationAt(s.rotations[a], s.rotations[a+1], s.rotations[a+2], s.rotations[a+3], 0.5)
	normal := curve.LerpNormal(s.normals[i], s.normals[i+1], 0.5)
	mode := ModeAligned
	if s.modes[i] == ModeAutomatic {
		mode = ModeAutomatic
	}

	s.points = slices.Replace(s.points, a+1, a+3,
		c.P0.Lerp(c.P1, 0.5),
		mid.Sub(dir.Scale(reach)),
		mid,
		mid.Add(dir.Scale(reach)),
		c.P3.Lerp(c.P2, 0.5),
	)
	s.rotations = slices.Replace(s.rotations, a+1, a+3,
		s.rotations[a+1], rot, rot, rot, s.rotations[a+2],
	)
	s.modes = slices.Insert(s.modes, i+1, mode)
	s.normals = slices.Insert(s.normals, i+1, normal)
}

// DissolveCurve removes an interior anchor, joining its two curves. Each
// surviving handle keeps its direction and is stretched by the ratio of the
// joined length to its own curve's length, capped at half the new chord.
func (s *Spline) DissolveCurve(anchor int) error {
	if err := s.checkAnchor(anchor); err != nil {
		return err
	}
	if anchor == 0 || anchor >= len(s.points)-1 {
		return fmt.Errorf("%w: anchor %d", ErrEndpointAnchor, anchor)
	}

	i := anchor / 3
	p0, p3 := s.points[anchor-3], s.points[anchor+3]
	left := s.Curve(i - 1).EstimatedLength()
	right := s.Curve(i).EstimatedLength()
	joined := left + right
	limit := p0.Distance(p3) * dissolveClamp

	rebalance := func(a, h math.Vec3, own float32, fallback math.Vec3) math.Vec3 {
		off := h.Sub(a)
		d := off.Length()
		if own > math.Epsilon {
			d *= joined / own
		}
		d = min(d, limit)
		return a.Add(off.NormalizeOr(fallback).Scale(d))
	}
	chordDir := p3.Sub(p0).NormalizeOr(math.Forward)
	h0 := rebalance(p0, s.points[anchor-2], left, chordDir)
	h3 := rebalance(p3, s.points[anchor+2], right, chordDir.Neg())

	s.points = slices.Replace(s.points, anchor-2, anchor+3, h0, h3)
	s.rotations = slices.Replace(s.rotations, anchor-2, anchor+3, s.rotations[anchor-2], s.rotations[anchor+2])
	s.modes = slices.Delete(s.modes, i, i+1)
	s.normals = slices.Delete(s.normals, i, i+1)
	s.settle()
	s.changed(ChangeTopology, anchor-3)
	return nil
}

// SplitSpline cuts the spline at an interior anchor. The receiver keeps the
// head; the returned spline holds the tail re-based so its origin is the
// split anchor and its forward axis looks at the first retained handle.
// World-space geometry of both parts is unchanged. An Automatic split
// anchor becomes Aligned in both parts so its handles stay where they were.
func (s *Spline) SplitSpline(anchor int) (*Spline, error) {
	if err := s.checkAnchor(anchor); err != nil {
		return nil, err
	}
	if s.loop {
		return nil, ErrLooped
	}
	if anchor == 0 || anchor >= len(s.points)-1 {
		return nil, fmt.Errorf("%w: anchor %d", ErrEndpointAnchor, anchor)
	}

	origin := s.ControlPointWorld(anchor)
	look := s.ControlPointWorld(anchor + 1).Sub(origin)
	if look.Length() < math.Epsilon {
		look = s.ControlPointWorld(anchor + 3).Sub(origin)
	}
	up := s.transform.ApplyDirection(s.normals[anchor/3])

	tail := &Spline{
		id:      uuid.New(),
		static:  s.static,
		tension: s.tension,
		transform: Transform{
			Position: origin,
			Rotation: math.LookRotation(look.NormalizeOr(math.Forward), up),
		},
	}
	if s.modes[anchor/3] == ModeAutomatic {
		s.modes[anchor/3] = ModeAligned
	}
	s.copyInto(tail, anchor)
	tail.settle()

	s.points = s.points[:anchor+1]
	s.rotations = s.rotations[:anchor+1]
	s.modes = s.modes[:anchor/3+1]
	s.normals = s.normals[:anchor/3+1]
	s.settle()
	s.changed(ChangeTopology, anchor)
	return tail, nil
}

// copyInto appends this spline's points from index onward to dst,
// converting them into dst's local frame.
func (s *Spline) copyInto(dst *Spline, from int) {
	inv := dst.transform.Rotation.Conjugate()
	for i := from; i < len(s.points); i++ {
		dst.points = append(dst.points, dst.transform.Inverse(s.ControlPointWorld(i)))
		r := inv.Mul(s.transform.Rotation).Mul(s.rotations[i]).Normalize()
		dst.rotations = append(dst.rotations, r)
	}
	for k := (from + 2) / 3; k < len(s.modes); k++ {
		n := dst.transform.InverseDirection(s.transform.ApplyDirection(s.normals[k]))
		dst.modes = append(dst.modes, s.modes[k])
		dst.normals = append(dst.normals, n.NormalizeOr(math.Up))
	}
}

// Merge appends other's curves after this spline's end. Other's first
// anchor is taken to coincide with this spline's last anchor and is
// dropped. Other is not modified.
func (s *Spline) Merge(other *Spline) error {
	if other == nil || other == s {
		return ErrNilSpline
	}
	if s.loop || other.loop {
		return ErrLooped
	}
	junction := len(s.points) - 1
	other.copyInto(s, 1)
	s.settle()
	s.changed(ChangeTopology, junction)
	return nil
}
