package spline

// FollowMode controls what a Follower does at the ends of the spline.
type FollowMode uint8

const (
	// FollowOnce stops at the end.
	FollowOnce FollowMode = iota
	// FollowLoop jumps back to the start.
	FollowLoop
	// FollowPingPong reverses direction at either end.
	FollowPingPong
)

// Follower moves a point along a spline at constant speed. Drive it by
// calling Update once per tick.
type Follower struct {
	Spline   *Spline
	Speed    float32 // units per second
	Mode     FollowMode
	Distance float32 // arc length from the start
	Reverse  bool
	Finished bool

	// Surface, when set, keeps the follower on a height field.
	Surface     HeightField
	MaxDistance float32
}

// NewFollower returns a follower at the start of s.
func NewFollower(s *Spline, speed float32, mode FollowMode) *Follower {
	return &Follower{Spline: s, Speed: speed, Mode: mode}
}

// Update advances the follower. deltaMs is the time since the last update
// in milliseconds.
func (f *Follower) Update(deltaMs float32) OrientedPoint {
	if f.Spline == nil {
		return OrientedPoint{}
	}
	length := f.Spline.Length()
	if !f.Finished && length > 0 {
		step := f.Speed * deltaMs / 1000.0
		if f.Reverse {
			step = -step
		}
		f.Distance += step
		f.wrap(length)
	}
	return f.current()
}

func (f *Follower) wrap(length float32) {
	switch f.Mode {
	case FollowLoop:
		for f.Distance >= length {
			f.Distance -= length
		}
		for f.Distance < 0 {
			f.Distance += length
		}
	case FollowPingPong:
		for f.Distance > length || f.Distance < 0 {
			if f.Distance > length {
				f.Distance = 2*length - f.Distance
			} else {
				f.Distance = -f.Distance
			}
			f.Reverse = !f.Reverse
		}
	default:
		if f.Distance >= length {
			f.Distance = length
			f.Finished = true
		} else if f.Distance <= 0 && f.Reverse {
			f.Distance = 0
			f.Finished = true
		}
	}
}

// current returns the frame at the follower's distance, facing the
// direction of travel.
func (f *Follower) current() OrientedPoint {
	p := f.Spline.GetOrientedPointAtDistance(f.Distance)
	if f.Surface != nil {
		if hit, ok := f.Surface.ProjectOntoSurface(p.Position, f.MaxDistance); ok {
			p.Position = hit
		}
	}
	if f.Reverse {
		d := p.Distance
		p = newFrame(p.Position, p.Forward.Neg(), p.Up, p.T, p.CurveIndex)
		p.Distance = d
	}
	return p
}
