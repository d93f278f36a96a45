package extrude

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-spline/pkg/math"
)

// Strip builds a flat road-like piece of the given width and length lying
// on the XZ plane, facing up. It has columns+1 vertices across each of its
// two edge rows and one material slot.
func Strip(width, length float32, columns int) *BaseMesh {
	columns = max(columns, 1)
	m := &BaseMesh{SubMeshes: make([][]uint32, 1)}
	for row := 0; row < 2; row++ {
		z := float32(row) * length
		for c := 0; c <= columns; c++ {
			u := float32(c) / float32(columns)
			m.Vertices = append(m.Vertices, math.Vec3{X: (u - 0.5) * width, Z: z})
			m.Normals = append(m.Normals, math.Up)
			m.Tangents = append(m.Tangents, math.Vec4{1, 0, 0, 1})
			m.UVs = append(m.UVs, math.Vec2{X: u, Y: float32(row)})
		}
	}
	stride := uint32(columns + 1)
	for c := uint32(0); c < uint32(columns); c++ {
		a, b := c, c+1
		d, e := c+stride, c+1+stride
		m.SubMeshes[0] = append(m.SubMeshes[0], a, d, b, b, d, e)
	}
	return m
}

// Box builds a closed rectangular tube section of the given width, height
// and length, centered on X and resting on Y=0. Each side has its own
// vertices so normals stay flat. The top face uses material slot 0 and the
// remaining faces slot 1.
func Box(width, height, length float32) *BaseMesh {
	hw := width / 2
	m := &BaseMesh{SubMeshes: make([][]uint32, 2)}
	sides := []struct {
		a, b   math.Vec3
		normal math.Vec3
		slot   int
	}{
		{math.Vec3{X: -hw, Y: height}, math.Vec3{X: hw, Y: height}, math.Up, 0},
		{math.Vec3{X: hw, Y: height}, math.Vec3{X: hw}, math.Right, 1},
		{math.Vec3{X: hw}, math.Vec3{X: -hw}, math.Down, 1},
		{math.Vec3{X: -hw}, math.Vec3{X: -hw, Y: height}, math.Left, 1},
	}
	for _, s := range sides {
		base := uint32(len(m.Vertices))
		tangent := s.b.Sub(s.a).NormalizeOr(math.Right)
		for row := 0; row < 2; row++ {
			z := math.Vec3{Z: float32(row) * length}
			for k, p := range []math.Vec3{s.a, s.b} {
				m.Vertices = append(m.Vertices, p.Add(z))
				m.Normals = append(m.Normals, s.normal)
				m.Tangents = append(m.Tangents, math.Vec4{tangent.X, tangent.Y, tangent.Z, 1})
				m.UVs = append(m.UVs, math.Vec2{X: float32(k), Y: float32(row)})
			}
		}
		m.SubMeshes[s.slot] = append(m.SubMeshes[s.slot],
			base, base+2, base+1,
			base+1, base+2, base+3,
		)
	}
	return m
}

// Disc builds a flat fan in the XY plane facing -Z, usable as a cap.
func Disc(radius float32, segments int) *BaseMesh {
	segments = max(segments, 3)
	m := &BaseMesh{SubMeshes: make([][]uint32, 1)}
	m.Vertices = append(m.Vertices, math.Vec3{})
	m.UVs = append(m.UVs, math.Vec2{X: 0.5, Y: 0.5})
	for i := 0; i < segments; i++ {
		a := 2 * math32.Pi * float32(i) / float32(segments)
		x, y := math32.Cos(a), math32.Sin(a)
		m.Vertices = append(m.Vertices, math.Vec3{X: x * radius, Y: y * radius})
		m.UVs = append(m.UVs, math.Vec2{X: 0.5 + x/2, Y: 0.5 + y/2})
	}
	for range m.Vertices {
		m.Normals = append(m.Normals, math.Back)
		m.Tangents = append(m.Tangents, math.Vec4{1, 0, 0, 1})
	}
	for i := 1; i <= segments; i++ {
		next := i%segments + 1
		m.SubMeshes[0] = append(m.SubMeshes[0], 0, uint32(next), uint32(i))
	}
	return m
}
