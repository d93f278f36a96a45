// Package extrude sweeps cross-section meshes along sampled spline frames
// and produces renderer-ready vertex and index buffers.
package extrude

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Faultbox/midgard-spline/pkg/math"
	"github.com/Faultbox/midgard-spline/pkg/spline"
)

// VertexStride is the float count of one interleaved vertex:
// position(3) normal(3) uv0(2) uv1(2) tangent(4).
const VertexStride = 14

var (
	ErrNoLODs      = errors.New("profile has no LOD meshes")
	ErrInvalidMesh = errors.New("invalid base mesh")
	ErrNilProfile  = errors.New("nil profile")
)

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Size returns the box extent per axis.
func (b Bounds) Size() math.Vec3 { return b.Max.Sub(b.Min) }

func boundsOf(points []math.Vec3) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// BaseMesh is a cross-section piece authored along its local Z axis. Normals,
// Tangents and UVs are parallel to Vertices and may be empty. Each entry of
// SubMeshes is a triangle list for one material slot.
type BaseMesh struct {
	Vertices  []math.Vec3
	Normals   []math.Vec3
	Tangents  []math.Vec4
	UVs       []math.Vec2
	SubMeshes [][]uint32
}

// Bounds returns the bounding box of the mesh vertices.
func (m *BaseMesh) Bounds() Bounds { return boundsOf(m.Vertices) }

// Validate checks attribute counts and index ranges.
func (m *BaseMesh) Validate() error {
	if m == nil || len(m.Vertices) == 0 {
		return fmt.Errorf("%w: no vertices", ErrInvalidMesh)
	}
	n := len(m.Vertices)
	if l := len(m.Normals); l != 0 && l != n {
		return fmt.Errorf("%w: %d normals for %d vertices", ErrInvalidMesh, l, n)
	}
	if l := len(m.Tangents); l != 0 && l != n {
		return fmt.Errorf("%w: %d tangents for %d vertices", ErrInvalidMesh, l, n)
	}
	if l := len(m.UVs); l != 0 && l != n {
		return fmt.Errorf("%w: %d uvs for %d vertices", ErrInvalidMesh, l, n)
	}
	for slot, tris := range m.SubMeshes {
		if len(tris)%3 != 0 {
			return fmt.Errorf("%w: submesh %d has %d indices", ErrInvalidMesh, slot, len(tris))
		}
		for _, i := range tris {
			if int(i) >= n {
				return fmt.Errorf("%w: submesh %d index %d out of range", ErrInvalidMesh, slot, i)
			}
		}
	}
	return nil
}

func (m *BaseMesh) normal(i int) math.Vec3 {
	if len(m.Normals) == 0 {
		return math.Up
	}
	return m.Normals[i]
}

func (m *BaseMesh) tangent(i int) math.Vec4 {
	if len(m.Tangents) == 0 {
		return math.Vec4{1, 0, 0, 1}
	}
	return m.Tangents[i]
}

func (m *BaseMesh) uv(i int) math.Vec2 {
	if len(m.UVs) == 0 {
		return math.Vec2{}
	}
	return m.UVs[i]
}

// LOD is one level of detail: the cross-section used and the screen-size
// ratio below which the renderer moves to the next level.
type LOD struct {
	Mesh            *BaseMesh
	TransitionRatio float32
}

// Profile configures extrusion. It is read-only once built and may be
// shared between generators.
type Profile struct {
	LODs         []LOD
	VertexBudget int // 0 means unlimited
	AutoSplit    bool
	StartCap     *BaseMesh
	EndCap       *BaseMesh
}

// Validate checks every LOD and cap mesh.
func (p *Profile) Validate() error {
	if p == nil {
		return ErrNilProfile
	}
	if len(p.LODs) == 0 {
		return ErrNoLODs
	}
	for i, l := range p.LODs {
		if err := l.Mesh.Validate(); err != nil {
			return fmt.Errorf("lod %d: %w", i, err)
		}
	}
	if p.StartCap != nil {
		if err := p.StartCap.Validate(); err != nil {
			return fmt.Errorf("start cap: %w", err)
		}
	}
	if p.EndCap != nil {
		if err := p.EndCap.Validate(); err != nil {
			return fmt.Errorf("end cap: %w", err)
		}
	}
	return nil
}

// Vertex is one output vertex. UV1 duplicates UV0.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	UV0      math.Vec2
	UV1      math.Vec2
	Tangent  math.Vec4
}

// SubMesh is a contiguous range of the index buffer drawn with one material.
type SubMesh struct {
	Material   int
	StartIndex int32
	IndexCount int32
}

// GeneratedMesh holds buffers ready for upload.
type GeneratedMesh struct {
	Vertices  []Vertex
	Indices   []uint32
	SubMeshes []SubMesh
	Bounds    Bounds
	Truncated bool // the vertex budget stopped this mesh early
}

// Interleaved packs the vertices as position, normal, uv0, uv1, tangent.
func (m *GeneratedMesh) Interleaved() []float32 {
	out := make([]float32, 0, len(m.Vertices)*VertexStride)
	for _, v := range m.Vertices {
		out = append(out,
			v.Position.X, v.Position.Y, v.Position.Z,
			v.Normal.X, v.Normal.Y, v.Normal.Z,
			v.UV0.X, v.UV0.Y,
			v.UV1.X, v.UV1.Y,
			v.Tangent[0], v.Tangent[1], v.Tangent[2], v.Tangent[3],
		)
	}
	return out
}

// TriangleCount returns the number of triangles across all sub-meshes.
func (m *GeneratedMesh) TriangleCount() int { return len(m.Indices) / 3 }

// Overflow describes where the vertex budget ran out.
type Overflow struct {
	LOD        int
	Segment    int // index of the frame pair being extruded
	CurveIndex int // curve of the segment's first frame
	Vertices   int // vertices accepted before the overflow
	AutoSplit  bool
}

// CapPlacement positions an end piece. Disabled caps keep their placement
// so hosts can still show a gizmo.
type CapPlacement struct {
	Enabled  bool
	Mesh     *BaseMesh
	Position math.Vec3
	Rotation math.Quat
}

// Result is the output of one extrusion pass.
type Result struct {
	SourceID    uuid.UUID      // spline the frames were sampled from
	Spline      *spline.Spline // piece this result belongs to, when split
	LODs        []GeneratedMesh
	Transitions []float32
	StartCap    CapPlacement
	EndCap      CapPlacement
	Overflow    *Overflow
}

// VertexCount sums the vertices of every LOD.
func (r *Result) VertexCount() int {
	var n int
	for i := range r.LODs {
		n += len(r.LODs[i].Vertices)
	}
	return n
}
