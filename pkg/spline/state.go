package spline

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-spline/pkg/math"
)

// StateVersion is the current layout of State.
const StateVersion = 1

// ErrInvalidState is returned when a State cannot describe a spline.
var ErrInvalidState = fmt.Errorf("%w: invalid spline state", ErrPrecondition)

// State is the persistable form of a spline. Positions are local.
type State struct {
	Version   int             `yaml:"version"`
	ID        string          `yaml:"id,omitempty"`
	Positions []math.Vec3     `yaml:"positions"`
	Rotations []math.Quat     `yaml:"rotations"`
	Modes     []AlignmentMode `yaml:"modes"`
	Normals   []math.Vec3     `yaml:"normals"`
	Loop      bool            `yaml:"loop"`
	Static    bool            `yaml:"static"`
	Tension   float32         `yaml:"tension"`
	Transform Transform       `yaml:"transform"`
}

// State snapshots the spline.
func (s *Spline) State() State {
	return State{
		Version:   StateVersion,
		ID:        s.id.String(),
		Positions: append([]math.Vec3(nil), s.points...),
		Rotations: append([]math.Quat(nil), s.rotations...),
		Modes:     append([]AlignmentMode(nil), s.modes...),
		Normals:   append([]math.Vec3(nil), s.normals...),
		Loop:      s.loop,
		Static:    s.static,
		Tension:   s.tension,
		Transform: s.transform,
	}
}

// Validate checks array lengths and version.
func (st State) Validate() error {
	n := len(st.Positions)
	if n < 4 || (n-1)%3 != 0 {
		return fmt.Errorf("%w: %d positions", ErrInvalidState, n)
	}
	anchors := (n-1)/3 + 1
	switch {
	case st.Version > StateVersion:
		return fmt.Errorf("%w: version %d is newer than %d", ErrInvalidState, st.Version, StateVersion)
	case len(st.Rotations) != n:
		return fmt.Errorf("%w: %d rotations for %d positions", ErrInvalidState, len(st.Rotations), n)
	case len(st.Modes) != anchors:
		return fmt.Errorf("%w: %d modes for %d anchors", ErrInvalidState, len(st.Modes), anchors)
	case len(st.Normals) != anchors:
		return fmt.Errorf("%w: %d normals for %d anchors", ErrInvalidState, len(st.Normals), anchors)
	}
	for i, m := range st.Modes {
		if m > ModeAutomatic {
			return fmt.Errorf("%w: anchor %d has mode %d", ErrInvalidState, i, m)
		}
	}
	return nil
}

// FromState restores a spline exactly as captured. Constraints are not
// re-applied, so evaluation matches the source spline. A missing or
// malformed ID is replaced with a fresh one.
func FromState(st State) (*Spline, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(st.ID)
	if err != nil {
		id = uuid.New()
	}
	tension := st.Tension
	if tension <= 0 {
		tension = DefaultTension
	}
	tr := st.Transform
	if tr.Rotation == (math.Quat{}) {
		tr.Rotation = math.QuatIdentity()
	}
	return &Spline{
		id:        id,
		points:    append([]math.Vec3(nil), st.Positions...),
		rotations: append([]math.Quat(nil), st.Rotations...),
		modes:     append([]AlignmentMode(nil), st.Modes...),
		normals:   append([]math.Vec3(nil), st.Normals...),
		loop:      st.Loop,
		static:    st.Static,
		tension:   tension,
		transform: tr,
	}, nil
}

// MarshalYAML encodes the spline as a YAML document.
func MarshalYAML(s *Spline) ([]byte, error) {
	data, err := yaml.Marshal(s.State())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal spline: %w", err)
	}
	return data, nil
}

// UnmarshalYAML decodes a spline from a YAML document.
func UnmarshalYAML(data []byte) (*Spline, error) {
	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse spline: %w", err)
	}
	return FromState(st)
}
