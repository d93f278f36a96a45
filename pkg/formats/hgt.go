package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/midgard-spline/pkg/math"
)

// HGT format errors.
var (
	ErrInvalidHGTMagic       = errors.New("invalid HGT magic: expected 'HGRD'")
	ErrUnsupportedHGTVersion = errors.New("unsupported HGT version")
	ErrTruncatedHGTData      = errors.New("truncated HGT data")
)

// HGTVersion is the version written by EncodeHeightGrid.
var HGTVersion = Version{Major: 1, Minor: 0}

// maxHGTSide bounds each grid dimension.
const maxHGTSide = 8192

// HeightGrid is a regular grid of height samples on the XZ plane. Sample
// (x, z) sits at Origin + (x*CellSize, height, z*CellSize).
type HeightGrid struct {
	Version  Version
	Width    uint32 // samples along X
	Depth    uint32 // samples along Z
	CellSize float32
	Origin   math.Vec3
	Heights  []float32 // row-major, Depth rows of Width samples
}

// NewHeightGrid returns a flat grid at height 0.
func NewHeightGrid(width, depth uint32, cellSize float32, origin math.Vec3) *HeightGrid {
	return &HeightGrid{
		Version:  HGTVersion,
		Width:    width,
		Depth:    depth,
		CellSize: cellSize,
		Origin:   origin,
		Heights:  make([]float32, int(width)*int(depth)),
	}
}

// At returns the sample at (x, z), clamping to the grid edge.
func (g *HeightGrid) At(x, z int) float32 {
	x = max(0, min(x, int(g.Width)-1))
	z = max(0, min(z, int(g.Depth)-1))
	return g.Heights[z*int(g.Width)+x]
}

// Set stores a sample. Out of range coordinates are ignored.
func (g *HeightGrid) Set(x, z int, h float32) {
	if x < 0 || z < 0 || x >= int(g.Width) || z >= int(g.Depth) {
		return
	}
	g.Heights[z*int(g.Width)+x] = h
}

// HeightRange returns the minimum and maximum sample.
func (g *HeightGrid) HeightRange() (lo, hi float32) {
	if len(g.Heights) == 0 {
		return 0, 0
	}
	lo, hi = g.Heights[0], g.Heights[0]
	for _, h := range g.Heights {
		lo = min(lo, h)
		hi = max(hi, h)
	}
	return lo, hi
}

type hgtHeader struct {
	Magic    [4]byte
	Minor    uint8
	Major    uint8
	Width    uint32
	Depth    uint32
	CellSize float32
	Origin   [3]float32
}

// ParseHeightGrid parses an HGT file from raw bytes.
func ParseHeightGrid(data []byte) (*HeightGrid, error) {
	if len(data) < 4 {
		return nil, ErrTruncatedHGTData
	}
	if string(data[0:4]) != "HGRD" {
		return nil, ErrInvalidHGTMagic
	}

	r := bytes.NewReader(data)
	var h hgtHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedHGTData)
	}
	version := Version{Major: h.Major, Minor: h.Minor}
	if version.Major != HGTVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedHGTVersion, version)
	}
	if h.Width < 2 || h.Depth < 2 || h.Width > maxHGTSide || h.Depth > maxHGTSide {
		return nil, fmt.Errorf("invalid HGT dimensions: %dx%d", h.Width, h.Depth)
	}
	if !(h.CellSize > 0) {
		return nil, fmt.Errorf("invalid HGT cell size: %v", h.CellSize)
	}

	g := &HeightGrid{
		Version:  version,
		Width:    h.Width,
		Depth:    h.Depth,
		CellSize: h.CellSize,
		Origin:   vec3(h.Origin),
		Heights:  make([]float32, int(h.Width)*int(h.Depth)),
	}
	if err := binary.Read(r, binary.LittleEndian, g.Heights); err != nil {
		return nil, fmt.Errorf("%w: reading heights", ErrTruncatedHGTData)
	}
	return g, nil
}

// ParseHeightGridFile parses an HGT file from disk.
func ParseHeightGridFile(path string) (*HeightGrid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading HGT file: %w", err)
	}
	return ParseHeightGrid(data)
}

// EncodeHeightGrid serializes g.
func EncodeHeightGrid(g *HeightGrid) ([]byte, error) {
	if len(g.Heights) != int(g.Width)*int(g.Depth) {
		return nil, fmt.Errorf("height grid has %d samples for %dx%d", len(g.Heights), g.Width, g.Depth)
	}
	var buf bytes.Buffer
	h := hgtHeader{
		Magic:    [4]byte{'H', 'G', 'R', 'D'},
		Minor:    HGTVersion.Minor,
		Major:    HGTVersion.Major,
		Width:    g.Width,
		Depth:    g.Depth,
		CellSize: g.CellSize,
		Origin:   g.Origin.Array(),
	}
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("writing HGT header: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, g.Heights); err != nil {
		return nil, fmt.Errorf("writing HGT heights: %w", err)
	}
	return buf.Bytes(), nil
}
