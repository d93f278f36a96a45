package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/Faultbox/midgard-spline/pkg/math"
	"github.com/Faultbox/midgard-spline/pkg/spline"
)

// SPL format errors.
var (
	ErrInvalidSPLMagic       = errors.New("invalid SPL magic: expected 'SPLN'")
	ErrUnsupportedSPLVersion = errors.New("unsupported SPL version")
	ErrTruncatedSPLData      = errors.New("truncated SPL data")
)

// SPL flag bits.
const (
	SPLFlagLoop   uint16 = 1 << 0
	SPLFlagStatic uint16 = 1 << 1
)

// maxSPLPoints bounds the point count read from a file.
const maxSPLPoints = 1 << 20

// splHeader is the fixed-size head of an SPL record.
type splHeader struct {
	Magic      [4]byte
	Minor      uint8
	Major      uint8
	Flags      uint16
	Tension    float32
	Position   [3]float32
	Rotation   [4]float32
	ID         [16]byte
	PointCount uint32
}

type splPoint struct {
	Position [3]float32
	Rotation [4]float32
}

type splAnchor struct {
	Mode   uint8
	Normal [3]float32
}

// SPLVersion is the version written by EncodeSpline.
var SPLVersion = Version{Major: 1, Minor: 0}

// Version is a major.minor file version.
type Version struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// EncodeSpline writes s as a little-endian SPL record.
func EncodeSpline(s *spline.Spline) ([]byte, error) {
	if s == nil {
		return nil, spline.ErrNilSpline
	}
	var buf bytes.Buffer
	if err := WriteSpline(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSpline streams s as an SPL record.
func WriteSpline(w io.Writer, s *spline.Spline) error {
	st := s.State()
	h := splHeader{
		Magic:      [4]byte{'S', 'P', 'L', 'N'},
		Minor:      SPLVersion.Minor,
		Major:      SPLVersion.Major,
		Tension:    st.Tension,
		Position:   st.Transform.Position.Array(),
		Rotation:   quatArray(st.Transform.Rotation),
		ID:         s.ID(),
		PointCount: uint32(len(st.Positions)),
	}
	if st.Loop {
		h.Flags |= SPLFlagLoop
	}
	if st.Static {
		h.Flags |= SPLFlagStatic
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("writing SPL header: %w", err)
	}

	points := make([]splPoint, len(st.Positions))
	for i := range points {
		points[i] = splPoint{Position: st.Positions[i].Array(), Rotation: quatArray(st.Rotations[i])}
	}
	if err := binary.Write(w, binary.LittleEndian, points); err != nil {
		return fmt.Errorf("writing SPL points: %w", err)
	}

	anchors := make([]splAnchor, len(st.Modes))
	for i := range anchors {
		anchors[i] = splAnchor{Mode: uint8(st.Modes[i]), Normal: st.Normals[i].Array()}
	}
	if err := binary.Write(w, binary.LittleEndian, anchors); err != nil {
		return fmt.Errorf("writing SPL anchors: %w", err)
	}
	return nil
}

// ParseSpline parses an SPL record from raw bytes.
func ParseSpline(data []byte) (*spline.Spline, error) {
	if len(data) < 4 {
		return nil, ErrTruncatedSPLData
	}
	if string(data[0:4]) != "SPLN" {
		return nil, ErrInvalidSPLMagic
	}

	r := bytes.NewReader(data)
	var h splHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedSPLData)
	}
	version := Version{Major: h.Major, Minor: h.Minor}
	if version.Major != SPLVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSPLVersion, version)
	}
	if h.PointCount < 4 || (h.PointCount-1)%3 != 0 || h.PointCount > maxSPLPoints {
		return nil, fmt.Errorf("invalid SPL point count: %d", h.PointCount)
	}

	points := make([]splPoint, h.PointCount)
	if err := binary.Read(r, binary.LittleEndian, points); err != nil {
		return nil, fmt.Errorf("%w: reading points", ErrTruncatedSPLData)
	}
	anchors := make([]splAnchor, (h.PointCount-1)/3+1)
	if err := binary.Read(r, binary.LittleEndian, anchors); err != nil {
		return nil, fmt.Errorf("%w: reading anchors", ErrTruncatedSPLData)
	}

	st := spline.State{
		Version:   spline.StateVersion,
		ID:        uuid.UUID(h.ID).String(),
		Loop:      h.Flags&SPLFlagLoop != 0,
		Static:    h.Flags&SPLFlagStatic != 0,
		Tension:   h.Tension,
		Positions: make([]math.Vec3, len(points)),
		Rotations: make([]math.Quat, len(points)),
		Modes:     make([]spline.AlignmentMode, len(anchors)),
		Normals:   make([]math.Vec3, len(anchors)),
		Transform: spline.Transform{
			Position: vec3(h.Position),
			Rotation: quat(h.Rotation),
		},
	}
	for i, p := range points {
		st.Positions[i] = vec3(p.Position)
		st.Rotations[i] = quat(p.Rotation)
	}
	for i, a := range anchors {
		st.Modes[i] = spline.AlignmentMode(a.Mode)
		st.Normals[i] = vec3(a.Normal)
	}

	s, err := spline.FromState(st)
	if err != nil {
		return nil, fmt.Errorf("decoding SPL: %w", err)
	}
	return s, nil
}

// ParseSplineFile parses an SPL file from disk.
func ParseSplineFile(path string) (*spline.Spline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading SPL file: %w", err)
	}
	return ParseSpline(data)
}

// WriteSplineFile writes s to path.
func WriteSplineFile(path string, s *spline.Spline) error {
	data, err := EncodeSpline(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func vec3(a [3]float32) math.Vec3 { return math.Vec3{X: a[0], Y: a[1], Z: a[2]} }

func quat(a [4]float32) math.Quat { return math.Quat{X: a[0], Y: a[1], Z: a[2], W: a[3]} }

func quatArray(q math.Quat) [4]float32 { return [4]float32{q.X, q.Y, q.Z, q.W} }
