package spline

// ChangeKind describes what a mutation touched.
type ChangeKind uint8

const (
	ChangePoint ChangeKind = iota
	ChangeRotation
	ChangeNormal
	ChangeMode
	ChangeTopology
	ChangeLoop
	ChangeTransform
	ChangeSettings
)

var changeNames = [...]string{"point", "rotation", "normal", "mode", "topology", "loop", "transform", "settings"}

func (k ChangeKind) String() string {
	if int(k) < len(changeNames) {
		return changeNames[k]
	}
	return "unknown"
}

// Change is delivered to observers after every successful mutation.
// Index is the control point the caller addressed, or -1 when the change
// is not tied to one point.
type Change struct {
	Kind  ChangeKind
	Index int
}

type observer struct {
	id int
	fn func(*Spline, Change)
}

// OnChange registers fn to run after each mutation. The returned function
// removes the registration.
func (s *Spline) OnChange(fn func(*Spline, Change)) (cancel func()) {
	s.nextObsID++
	id := s.nextObsID
	s.observers = append(s.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// changed drops cached arc-length data and notifies observers.
func (s *Spline) changed(kind ChangeKind, index int) {
	s.lut = nil
	if len(s.observers) == 0 {
		return
	}
	obs := append([]observer(nil), s.observers...)
	c := Change{Kind: kind, Index: index}
	for _, o := range obs {
		o.fn(s, c)
	}
}
