package spline

import "github.com/Faultbox/midgard-spline/pkg/math"

// canonicalAnchor folds a loop's closing anchor onto anchor 0.
func (s *Spline) canonicalAnchor(anchor int) int {
	if s.loop && anchor == len(s.points)-1 {
		return 0
	}
	return anchor
}

// handles returns the handle indices on either side of an anchor, wrapping
// across the seam of a loop. Missing handles are -1.
func (s *Spline) handles(anchor int) (prev, next int) {
	last := len(s.points) - 1
	anchor = s.canonicalAnchor(anchor)
	prev, next = anchor-1, anchor+1
	if anchor == 0 {
		prev = -1
		if s.loop {
			prev = last - 1
		}
	}
	if anchor == last {
		next = -1
	}
	return prev, next
}

// neighborAnchors returns the anchors one curve away on either side, or -1.
func (s *Spline) neighborAnchors(anchor int) (prev, next int) {
	last := len(s.points) - 1
	anchor = s.canonicalAnchor(anchor)
	prev, next = anchor-3, anchor+3
	if anchor == 0 {
		prev = -1
		if s.loop {
			prev = last - 3
		}
	}
	if anchor == last {
		next = -1
	}
	return prev, next
}

// enforce restores the alignment constraint of the anchor owning index,
// treating index as the point the caller just moved. Moving an anchor (or
// changing its mode) keeps the previous handle fixed.
func (s *Spline) enforce(index int) {
	anchor := s.canonicalAnchor(s.AnchorOf(index))
	mode := s.modes[anchor/3]
	prev, next := s.handles(anchor)

	if mode == ModeAutomatic && !IsAnchor(index) {
		// A hand-placed handle takes the anchor out of automatic control
		mode = ModeAligned
		s.setModeRaw(anchor, mode)
	}
	if mode == ModeFree || mode == ModeAutomatic || prev < 0 || next < 0 {
		return
	}

	fixed, enforced := prev, next
	if index == next {
		fixed, enforced = next, prev
	}

	p := s.points[anchor]
	tangent := p.Sub(s.points[fixed])
	if mode == ModeAligned {
		length := s.points[enforced].Distance(p)
		if tangent.Length() < math.Epsilon {
			return
		}
		tangent = tangent.Normalize().Scale(length)
	}
	s.points[enforced] = p.Add(tangent)
	s.syncHandleRotations(anchor)
}

// autoHandles places both handles of an Automatic anchor along the bisector
// of its neighbor directions, each scaled by tension times the distance to
// that neighbor. Endpoints of an open spline have one neighbor and aim
// their handle at the nearer handle of the adjoining curve.
func (s *Spline) autoHandles(anchor int) {
	p := s.points[anchor]
	prevH, nextH := s.handles(anchor)
	prevA, nextA := s.neighborAnchors(anchor)

	switch {
	case prevA >= 0 && nextA >= 0:
		dPrev := s.points[prevA].Sub(p)
		dNext := s.points[nextA].Sub(p)
		tangent := dNext.Normalize().Sub(dPrev.Normalize())
		if tangent.Length() < math.Epsilon {
			tangent = s.points[nextA].Sub(s.points[prevA])
		}
		tangent = tangent.NormalizeOr(math.Forward)
		s.points[nextH] = p.Add(tangent.Scale(s.tension * dNext.Length()))
		s.points[prevH] = p.Sub(tangent.Scale(s.tension * dPrev.Length()))
	case nextA >= 0:
		toward := s.points[nextA-1].Sub(p)
		if toward.Length() < math.Epsilon {
			toward = s.points[nextA].Sub(p)
		}
		dist := s.points[nextA].Distance(p)
		s.points[nextH] = p.Add(toward.NormalizeOr(math.Forward).Scale(s.tension * dist))
	case prevA >= 0:
		toward := s.points[prevA+1].Sub(p)
		if toward.Length() < math.Epsilon {
			toward = s.points[prevA].Sub(p)
		}
		dist := s.points[prevA].Distance(p)
		s.points[prevH] = p.Add(toward.NormalizeOr(math.Back).Scale(s.tension * dist))
	}
	s.syncHandleRotations(anchor)
}

// refreshAutomatic recomputes every Automatic anchor. Interior anchors go
// first so that endpoint handles see their final neighbors.
func (s *Spline) refreshAutomatic() {
	last := len(s.points) - 1
	var ends []int
	for a := 0; a <= last; a += 3 {
		if s.loop && a == last {
			continue
		}
		if s.modes[a/3] != ModeAutomatic {
			continue
		}
		prev, next := s.neighborAnchors(a)
		if prev < 0 || next < 0 {
			ends = append(ends, a)
			continue
		}
		s.autoHandles(a)
	}
	for _, a := range ends {
		s.autoHandles(a)
	}
	s.syncSeam()
}

// syncHandleRotations copies the anchor rotation onto its handles for any
// mode other than Free.
func (s *Spline) syncHandleRotations(anchor int) {
	if s.modes[anchor/3] == ModeFree {
		return
	}
	prev, next := s.handles(anchor)
	r := s.rotations[anchor]
	if prev >= 0 {
		s.rotations[prev] = r
	}
	if next >= 0 {
		s.rotations[next] = r
	}
}

// syncSeam copies anchor 0 onto the closing anchor of a loop.
func (s *Spline) syncSeam() {
	if !s.loop {
		return
	}
	last := len(s.points) - 1
	s.points[last] = s.points[0]
	s.rotations[last] = s.rotations[0]
	s.modes[len(s.modes)-1] = s.modes[0]
	s.normals[len(s.normals)-1] = s.normals[0]
}

func (s *Spline) setModeRaw(anchor int, mode AlignmentMode) {
	s.modes[anchor/3] = mode
	if s.loop && (anchor == 0 || anchor == len(s.points)-1) {
		s.modes[0] = mode
		s.modes[len(s.modes)-1] = mode
	}
}

// settle re-applies the constraints after a structural edit.
func (s *Spline) settle() {
	for a := 0; a < len(s.points); a += 3 {
		if m := s.modes[a/3]; m == ModeAligned || m == ModeMirrored {
			s.enforce(a)
		}
	}
	s.refreshAutomatic()
}
