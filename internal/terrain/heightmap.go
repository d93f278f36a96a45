// Package terrain provides height lookups over a regular grid so splines can
// be draped onto ground.
package terrain

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-spline/pkg/formats"
	"github.com/Faultbox/midgard-spline/pkg/math"
)

// Heightmap answers height queries against a height grid using bilinear
// interpolation. It implements spline.HeightField.
type Heightmap struct {
	grid *formats.HeightGrid
}

// New wraps a height grid.
func New(grid *formats.HeightGrid) (*Heightmap, error) {
	if grid == nil || grid.Width < 2 || grid.Depth < 2 || !(grid.CellSize > 0) {
		return nil, fmt.Errorf("height grid must be at least 2x2 with a positive cell size")
	}
	if len(grid.Heights) != int(grid.Width)*int(grid.Depth) {
		return nil, fmt.Errorf("height grid has %d samples for %dx%d", len(grid.Heights), grid.Width, grid.Depth)
	}
	return &Heightmap{grid: grid}, nil
}

// Load reads an HGT file.
func Load(path string) (*Heightmap, error) {
	g, err := formats.ParseHeightGridFile(path)
	if err != nil {
		return nil, err
	}
	return New(g)
}

// Grid returns the underlying samples.
func (h *Heightmap) Grid() *formats.HeightGrid { return h.grid }

// Extent returns the world-space XZ corners covered by the grid.
func (h *Heightmap) Extent() (lo, hi math.Vec2) {
	g := h.grid
	lo = math.Vec2{X: g.Origin.X, Y: g.Origin.Z}
	hi = math.Vec2{
		X: g.Origin.X + float32(g.Width-1)*g.CellSize,
		Y: g.Origin.Z + float32(g.Depth-1)*g.CellSize,
	}
	return lo, hi
}

// Contains reports whether the XZ position lies over the grid.
func (h *Heightmap) Contains(worldX, worldZ float32) bool {
	lo, hi := h.Extent()
	return worldX >= lo.X && worldX <= hi.X && worldZ >= lo.Y && worldZ <= hi.Y
}

// HeightAt returns the interpolated surface height at a world position.
// Positions off the grid use the nearest edge.
func (h *Heightmap) HeightAt(worldX, worldZ float32) float32 {
	g := h.grid
	fx := (worldX - g.Origin.X) / g.CellSize
	fz := (worldZ - g.Origin.Z) / g.CellSize

	cellX := int(math32.Floor(fx))
	cellZ := int(math32.Floor(fz))
	cellX = max(0, min(cellX, int(g.Width)-2))
	cellZ = max(0, min(cellZ, int(g.Depth)-2))

	fracX := math.Clamp01(fx - float32(cellX))
	fracZ := math.Clamp01(fz - float32(cellZ))

	// Lerp along X on both Z edges, then between them
	south := math.Lerp(g.At(cellX, cellZ), g.At(cellX+1, cellZ), fracX)
	north := math.Lerp(g.At(cellX, cellZ+1), g.At(cellX+1, cellZ+1), fracX)
	return g.Origin.Y + math.Lerp(south, north, fracZ)
}

// NormalAt returns the surface normal from central differences.
func (h *Heightmap) NormalAt(worldX, worldZ float32) math.Vec3 {
	d := h.grid.CellSize / 2
	dx := h.HeightAt(worldX+d, worldZ) - h.HeightAt(worldX-d, worldZ)
	dz := h.HeightAt(worldX, worldZ+d) - h.HeightAt(worldX, worldZ-d)
	return math.Vec3{X: -dx, Y: 2 * d, Z: -dz}.NormalizeOr(math.Up)
}

// ProjectOntoSurface drops p vertically onto the surface. It misses when p
// is off the grid or further than maxDistance from the surface.
func (h *Heightmap) ProjectOntoSurface(p math.Vec3, maxDistance float32) (math.Vec3, bool) {
	if c := p.XZ(); !h.Contains(c.X, c.Y) {
		return p, false
	}
	y := h.HeightAt(p.X, p.Z)
	if math32.Abs(p.Y-y) > maxDistance {
		return p, false
	}
	return math.Vec3{X: p.X, Y: y, Z: p.Z}, true
}
