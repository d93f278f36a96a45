package extrude

import (
	"slices"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-spline/pkg/math"
	"github.com/Faultbox/midgard-spline/pkg/spline"
)

// Weld tolerances. Vertices whose quantized attributes match are merged.
const (
	weldPosition = 1e4
	weldNormal   = 1e3
	weldUV       = 1e4
)

// Extrude sweeps every LOD of profile along frames. Each consecutive frame
// pair produces one segment. Caps are placed at the first and last frame
// unless the matching side of connected is set.
//
// A LOD that runs out of vertex budget keeps the segments completed before
// the overflow and is marked Truncated; the first overflow is reported on
// the result.
func Extrude(frames []spline.OrientedPoint, profile *Profile, connected spline.Ends) (Result, error) {
	if err := profile.Validate(); err != nil {
		return Result{}, err
	}
	res := Result{
		LODs:        make([]GeneratedMesh, len(profile.LODs)),
		Transitions: make([]float32, len(profile.LODs)),
	}
	for i, lod := range profile.LODs {
		res.Transitions[i] = lod.TransitionRatio
		mesh, of := sweep(lod.Mesh, frames, profile.VertexBudget)
		res.LODs[i] = mesh
		if of != nil && res.Overflow == nil {
			of.LOD = i
			of.AutoSplit = profile.AutoSplit
			res.Overflow = of
		}
	}
	if len(frames) > 0 {
		first, last := frames[0], frames[len(frames)-1]
		res.StartCap = CapPlacement{
			Enabled:  profile.StartCap != nil && !connected.Start,
			Mesh:     profile.StartCap,
			Position: first.Position,
			// Start caps face back along the spline
			Rotation: math.LookRotation(first.Forward.Neg(), first.Up),
		}
		res.EndCap = CapPlacement{
			Enabled:  profile.EndCap != nil && !connected.End,
			Mesh:     profile.EndCap,
			Position: last.Position,
			Rotation: last.Rotation,
		}
	}
	return res, nil
}

type weldKey [9]int32

func quantize(v, scale float32) int32 { return int32(math32.Round(v * scale)) }

func keyOf(v Vertex) weldKey {
	return weldKey{
		quantize(v.Position.X, weldPosition),
		quantize(v.Position.Y, weldPosition),
		quantize(v.Position.Z, weldPosition),
		quantize(v.Normal.X, weldNormal),
		quantize(v.Normal.Y, weldNormal),
		quantize(v.Normal.Z, weldNormal),
		quantize(v.UV0.X, weldUV),
		quantize(v.UV0.Y, weldUV),
		quantize(v.Tangent[3], 1),
	}
}

// builder accumulates one LOD. Welding only looks at the previous and the
// current segment.
type builder struct {
	budget   int
	vertices []Vertex
	slots    [][]uint32
	prev     map[weldKey]uint32
	cur      map[weldKey]uint32
}

func (b *builder) nextSegment() {
	b.prev, b.cur = b.cur, make(map[weldKey]uint32, len(b.cur))
}

func (b *builder) lookup(k weldKey) (uint32, bool) {
	if i, ok := b.cur[k]; ok {
		return i, true
	}
	if i, ok := b.prev[k]; ok {
		b.cur[k] = i
		return i, true
	}
	return 0, false
}

type mark struct {
	vertices int
	slots    []int
}

func (b *builder) mark() mark {
	m := mark{vertices: len(b.vertices), slots: make([]int, len(b.slots))}
	for i, s := range b.slots {
		m.slots[i] = len(s)
	}
	return m
}

func (b *builder) rollback(m mark) {
	b.vertices = b.vertices[:m.vertices]
	for i := range b.slots {
		b.slots[i] = b.slots[i][:m.slots[i]]
	}
}

// sweep extrudes one base mesh. The returned overflow is nil when the whole
// frame list fit in the budget.
func sweep(base *BaseMesh, frames []spline.OrientedPoint, budget int) (GeneratedMesh, *Overflow) {
	b := &builder{
		budget: budget,
		slots:  make([][]uint32, len(base.SubMeshes)),
		cur:    make(map[weldKey]uint32),
	}
	bounds := base.Bounds()
	minZ, spanZ := bounds.Min.Z, bounds.Max.Z-bounds.Min.Z

	var overflow *Overflow
	segVerts := make([]Vertex, len(base.Vertices))
	for seg := 0; seg+1 < len(frames); seg++ {
		a, c := frames[seg], frames[seg+1]
		for i, v := range base.Vertices {
			var f float32
			if spanZ > math.Epsilon {
				f = (v.Z - minZ) / spanZ
			}
			segVerts[i] = bendVertex(base, i, a, c, f)
		}

		b.nextSegment()
		start := b.mark()
		if !b.appendSegment(base, segVerts) {
			b.rollback(start)
			overflow = &Overflow{
				Segment:    seg,
				CurveIndex: a.CurveIndex,
				Vertices:   len(b.vertices),
			}
			break
		}
	}
	return b.finish(overflow != nil), overflow
}

// appendSegment adds the triangles of one segment, checking the budget
// before each triangle. It reports false when the budget would be exceeded.
func (b *builder) appendSegment(base *BaseMesh, verts []Vertex) bool {
	resolved := make(map[uint32]uint32, len(verts))
	for slot, tris := range base.SubMeshes {
		for t := 0; t+2 < len(tris); t += 3 {
			tri := tris[t : t+3]

			fresh := 0
			var pending [3]bool
			for k, bi := range tri {
				if _, ok := resolved[bi]; ok {
					continue
				}
				if idx, ok := b.lookup(keyOf(verts[bi])); ok {
					resolved[bi] = idx
					continue
				}
				if slices.Contains(tri[:k], bi) {
					continue
				}
				pending[k] = true
				fresh++
			}
			if b.budget > 0 && len(b.vertices)+fresh > b.budget {
				return false
			}
			for k, bi := range tri {
				if !pending[k] {
					continue
				}
				if idx, ok := b.cur[keyOf(verts[bi])]; ok {
					resolved[bi] = idx
					continue
				}
				idx := uint32(len(b.vertices))
				b.vertices = append(b.vertices, verts[bi])
				b.cur[keyOf(verts[bi])] = idx
				resolved[bi] = idx
			}
			b.slots[slot] = append(b.slots[slot], resolved[tri[0]], resolved[tri[1]], resolved[tri[2]])
		}
	}
	return true
}

func (b *builder) finish(truncated bool) GeneratedMesh {
	m := GeneratedMesh{Vertices: b.vertices, Truncated: truncated}
	for slot, idx := range b.slots {
		if len(idx) == 0 {
			continue
		}
		m.SubMeshes = append(m.SubMeshes, SubMesh{
			Material:   slot,
			StartIndex: int32(len(m.Indices)),
			IndexCount: int32(len(idx)),
		})
		m.Indices = append(m.Indices, idx...)
	}
	pts := make([]math.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		pts[i] = v.Position
	}
	m.Bounds = boundsOf(pts)
	return m
}

// bendVertex places base vertex i between frames a and c. The vertex's
// cross-section offset is carried by each frame and the two results are
// blended by f, its normalized depth along the base mesh.
func bendVertex(base *BaseMesh, i int, a, c spline.OrientedPoint, f float32) Vertex {
	v := base.Vertices[i]
	offset := math.Vec3{X: v.X, Y: v.Y}
	pos := a.Position.Add(a.Rotation.Rotate(offset)).
		Lerp(c.Position.Add(c.Rotation.Rotate(offset)), f)

	n := base.normal(i)
	normal := a.Rotation.Rotate(n).Lerp(c.Rotation.Rotate(n), f).NormalizeOr(a.Up)

	tg := base.tangent(i)
	td := math.Vec3{X: tg[0], Y: tg[1], Z: tg[2]}
	tangent := a.Rotation.Rotate(td).Lerp(c.Rotation.Rotate(td), f).NormalizeOr(math.Right)

	uv := base.uv(i)
	return Vertex{
		Position: pos,
		Normal:   normal,
		UV0:      uv,
		UV1:      uv,
		Tangent:  math.Vec4{tangent.X, tangent.Y, tangent.Z, tg[3]},
	}
}

// Transformed returns the cap mesh placed in world space. A disabled or
// empty cap yields an empty mesh.
func (c CapPlacement) Transformed() GeneratedMesh {
	if !c.Enabled || c.Mesh == nil {
		return GeneratedMesh{}
	}
	m := c.Mesh
	xf := math.TRS(c.Position, c.Rotation, math.One3)
	out := GeneratedMesh{Vertices: make([]Vertex, len(m.Vertices))}
	pts := make([]math.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		tg := m.tangent(i)
		td := xf.TransformDirection(math.Vec3{X: tg[0], Y: tg[1], Z: tg[2]})
		uv := m.uv(i)
		out.Vertices[i] = Vertex{
			Position: xf.TransformPoint(v),
			Normal:   xf.TransformDirection(m.normal(i)),
			UV0:      uv,
			UV1:      uv,
			Tangent:  math.Vec4{td.X, td.Y, td.Z, tg[3]},
		}
		pts[i] = out.Vertices[i].Position
	}
	for slot, tris := range m.SubMeshes {
		out.SubMeshes = append(out.SubMeshes, SubMesh{
			Material:   slot,
			StartIndex: int32(len(out.Indices)),
			IndexCount: int32(len(tris)),
		})
		out.Indices = append(out.Indices, tris...)
	}
	out.Bounds = boundsOf(pts)
	return out
}
