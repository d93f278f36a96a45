package extrude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-spline/pkg/math"
	"github.com/Faultbox/midgard-spline/pkg/spline"
)

// straight returns a spline along +Z made of curves of equal length with
// handles at thirds.
func straight(t *testing.T, curves int, curveLen float32) *spline.Spline {
	t.Helper()
	pts := make([]math.Vec3, 3*curves+1)
	for i := range pts {
		pts[i] = math.Vec3{Z: float32(i) * curveLen / 3}
	}
	s, err := spline.NewFromPoints(pts)
	require.NoError(t, err)
	return s
}

func frames(t *testing.T, s *spline.Spline) []spline.OrientedPoint {
	t.Helper()
	f, err := s.CalculateOrientedPoints(1, 20)
	require.NoError(t, err)
	return f
}

func frameAt(z float32) spline.OrientedPoint {
	return spline.OrientedPoint{
		Position: math.Vec3{Z: z},
		Rotation: math.QuatIdentity(),
		Forward:  math.Forward,
		Up:       math.Up,
	}
}

// stripProfile yields 40 vertices per segment.
func stripProfile(budget int) *Profile {
	return &Profile{
		LODs:         []LOD{{Mesh: Strip(2, 1, 19), TransitionRatio: 0.5}},
		VertexBudget: budget,
	}
}

func TestExtrudeBudgetOverflow(t *testing.T) {
	f := frames(t, straight(t, 1, 10))
	require.Len(t, f, 11)

	res, err := Extrude(f, stripProfile(100), spline.Ends{})
	require.NoError(t, err)
	require.NotNil(t, res.Overflow)
	assert.Equal(t, 2, res.Overflow.Segment)
	assert.Equal(t, 0, res.Overflow.CurveIndex)
	assert.Equal(t, 0, res.Overflow.LOD)
	assert.Equal(t, 80, res.Overflow.Vertices)
	assert.False(t, res.Overflow.AutoSplit)

	mesh := res.LODs[0]
	assert.True(t, mesh.Truncated)
	assert.Len(t, mesh.Vertices, 80)
	assert.Equal(t, 2*38, mesh.TriangleCount())
	for _, i := range mesh.Indices {
		assert.Less(t, int(i), len(mesh.Vertices))
	}
}

func TestExtrudeOverflowCurveIndex(t *testing.T) {
	f := frames(t, straight(t, 3, 3))
	require.Len(t, f, 10)

	res, err := Extrude(f, stripProfile(160), spline.Ends{})
	require.NoError(t, err)
	require.NotNil(t, res.Overflow)
	assert.Equal(t, 4, res.Overflow.Segment)
	assert.Equal(t, 1, res.Overflow.CurveIndex)
}

func TestExtrudeWithinBudget(t *testing.T) {
	f := frames(t, straight(t, 1, 10))
	res, err := Extrude(f, stripProfile(0), spline.Ends{})
	require.NoError(t, err)
	assert.Nil(t, res.Overflow)
	mesh := res.LODs[0]
	assert.False(t, mesh.Truncated)
	assert.Len(t, mesh.Vertices, 400)
	assert.Equal(t, []float32{0.5}, res.Transitions)
	require.Len(t, mesh.SubMeshes, 1)
	assert.Equal(t, SubMesh{Material: 0, StartIndex: 0, IndexCount: int32(len(mesh.Indices))}, mesh.SubMeshes[0])

	assert.InDelta(t, -1, mesh.Bounds.Min.X, 1e-4)
	assert.InDelta(t, 1, mesh.Bounds.Max.X, 1e-4)
	assert.InDelta(t, 0, mesh.Bounds.Min.Z, 1e-4)
	assert.InDelta(t, 10, mesh.Bounds.Max.Z, 2e-3)
}

func TestExtrudeFollowsFrames(t *testing.T) {
	pts := []math.Vec3{{}, {X: 2}, {X: 4}, {X: 6}}
	s, err := spline.NewFromPoints(pts)
	require.NoError(t, err)

	res, err := Extrude(frames(t, s), stripProfile(0), spline.Ends{})
	require.NoError(t, err)
	b := res.LODs[0].Bounds
	assert.InDelta(t, 0, b.Min.X, 1e-3)
	assert.InDelta(t, 6, b.Max.X, 2e-3)
	assert.InDelta(t, -1, b.Min.Z, 1e-3)
	assert.InDelta(t, 1, b.Max.Z, 1e-3)
	for i, v := range res.LODs[0].Vertices {
		assert.InDelta(t, 0, v.Position.Y, 1e-4, "vertex %d", i)
		assert.InDelta(t, 1, v.Normal.Y, 1e-4, "vertex %d", i)
		assert.Equal(t, v.UV0, v.UV1)
	}
}

func TestExtrudeWeldsWithinSegment(t *testing.T) {
	// A quad split over two materials with the shared edge duplicated
	base := &BaseMesh{
		Vertices: []math.Vec3{
			{X: -1}, {X: 1}, {X: -1, Z: 1}, {X: 1, Z: 1},
			{X: 1}, {X: -1, Z: 1},
		},
		UVs: []math.Vec2{
			{X: 0}, {X: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
			{X: 1}, {X: 0, Y: 1},
		},
		SubMeshes: [][]uint32{{0, 2, 1}, {4, 5, 3}},
	}
	profile := &Profile{LODs: []LOD{{Mesh: base}}}

	res, err := Extrude([]spline.OrientedPoint{frameAt(0), frameAt(1)}, profile, spline.Ends{})
	require.NoError(t, err)
	mesh := res.LODs[0]
	assert.Len(t, mesh.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 3}, mesh.Indices)
	assert.Equal(t, []SubMesh{
		{Material: 0, StartIndex: 0, IndexCount: 3},
		{Material: 1, StartIndex: 3, IndexCount: 3},
	}, mesh.SubMeshes)
}

func TestExtrudeSingleFrame(t *testing.T) {
	res, err := Extrude([]spline.OrientedPoint{frameAt(0)}, stripProfile(0), spline.Ends{})
	require.NoError(t, err)
	assert.Empty(t, res.LODs[0].Vertices)
	assert.Nil(t, res.Overflow)
}

func TestExtrudeCaps(t *testing.T) {
	profile := stripProfile(0)
	profile.StartCap = Disc(1, 8)
	profile.EndCap = Disc(1, 8)
	f := []spline.OrientedPoint{frameAt(0), frameAt(1), frameAt(2)}

	res, err := Extrude(f, profile, spline.Ends{Start: true})
	require.NoError(t, err)
	assert.False(t, res.StartCap.Enabled)
	assert.True(t, res.EndCap.Enabled)
	assert.Equal(t, math.Vec3{Z: 2}, res.EndCap.Position)
	assert.Empty(t, res.StartCap.Transformed().Vertices)

	endCap := res.EndCap.Transformed()
	assert.Len(t, endCap.Vertices, 9)
	assert.Equal(t, 8, endCap.TriangleCount())
	assert.InDelta(t, 2, endCap.Bounds.Min.Z, 1e-5)
	assert.InDelta(t, 2, endCap.Bounds.Max.Z, 1e-5)

	// The start cap is turned to face back along the spline
	res, err = Extrude(f, profile, spline.Ends{})
	require.NoError(t, err)
	assert.InDelta(t, -1, res.StartCap.Rotation.Forward().Z, 1e-5)
}

func TestInterleaved(t *testing.T) {
	m := GeneratedMesh{Vertices: []Vertex{{
		Position: math.Vec3{X: 1, Y: 2, Z: 3},
		Normal:   math.Up,
		UV0:      math.Vec2{X: 0.25, Y: 0.75},
		UV1:      math.Vec2{X: 0.25, Y: 0.75},
		Tangent:  math.Vec4{1, 0, 0, -1},
	}, {}}}
	buf := m.Interleaved()
	require.Len(t, buf, 2*VertexStride)
	assert.Equal(t, []float32{1, 2, 3, 0, 1, 0, 0.25, 0.75, 0.25, 0.75, 1, 0, 0, -1}, buf[:VertexStride])
}

func TestProfileValidate(t *testing.T) {
	var nilProfile *Profile
	assert.ErrorIs(t, nilProfile.Validate(), ErrNilProfile)
	assert.ErrorIs(t, (&Profile{}).Validate(), ErrNoLODs)

	tests := []struct {
		name string
		mesh *BaseMesh
	}{
		{"nil mesh", nil},
		{"no vertices", &BaseMesh{}},
		{"normal count", &BaseMesh{Vertices: []math.Vec3{{}}, Normals: []math.Vec3{{}, {}}}},
		{"uv count", &BaseMesh{Vertices: []math.Vec3{{}}, UVs: []math.Vec2{{}, {}}}},
		{"partial triangle", &BaseMesh{Vertices: []math.Vec3{{}}, SubMeshes: [][]uint32{{0, 0}}}},
		{"index range", &BaseMesh{Vertices: []math.Vec3{{}}, SubMeshes: [][]uint32{{0, 0, 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{LODs: []LOD{{Mesh: tt.mesh}}}
			assert.ErrorIs(t, p.Validate(), ErrInvalidMesh)
		})
	}

	p := &Profile{LODs: []LOD{{Mesh: Box(2, 1, 1)}}, EndCap: &BaseMesh{}}
	assert.ErrorIs(t, p.Validate(), ErrInvalidMesh)
}

func TestShapes(t *testing.T) {
	for name, m := range map[string]*BaseMesh{
		"strip": Strip(4, 2, 3),
		"box":   Box(2, 1, 3),
		"disc":  Disc(1, 6),
	} {
		assert.NoError(t, m.Validate(), name)
	}
	b := Box(2, 1, 3).Bounds()
	assert.Equal(t, math.Vec3{X: -1}, b.Min)
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 3}, b.Max)
	assert.Len(t, Strip(4, 2, 3).Vertices, 8)
}
