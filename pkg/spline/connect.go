package spline

// Ends reports which ends of a spline touch another spline.
type Ends struct {
	Start bool
	End   bool
}

// ConnectedAt reports which ends of a meet an end of b within eps in world
// space. A loop counts as connected at both ends.
func ConnectedAt(a, b *Spline, eps float32) Ends {
	if a == nil {
		return Ends{}
	}
	if a.loop {
		return Ends{Start: true, End: true}
	}
	if b == nil || b == a || b.id == a.id {
		return Ends{}
	}
	as, ae := a.ControlPointWorld(0), a.ControlPointWorld(len(a.points)-1)
	bs, be := b.ControlPointWorld(0), b.ControlPointWorld(len(b.points)-1)
	return Ends{
		Start: as.Distance(bs) <= eps || as.Distance(be) <= eps,
		End:   ae.Distance(bs) <= eps || ae.Distance(be) <= eps,
	}
}

// Connections folds ConnectedAt over a set of neighbors.
func Connections(s *Spline, neighbors []*Spline, eps float32) Ends {
	var e Ends
	if s != nil && s.loop {
		return Ends{Start: true, End: true}
	}
	for _, n := range neighbors {
		c := ConnectedAt(s, n, eps)
		e.Start = e.Start || c.Start
		e.End = e.End || c.End
	}
	return e
}
