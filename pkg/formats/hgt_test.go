package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Faultbox/midgard-spline/pkg/math"
)

// createTestHGT builds a raw HGT file with heights x+10*z.
func createTestHGT(width, depth uint32, cellSize float32) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString("HGRD")
	buf.WriteByte(0) // minor
	buf.WriteByte(1) // major
	binary.Write(buf, binary.LittleEndian, width)
	binary.Write(buf, binary.LittleEndian, depth)
	binary.Write(buf, binary.LittleEndian, cellSize)
	binary.Write(buf, binary.LittleEndian, [3]float32{-5, 0, -5})
	for z := uint32(0); z < depth; z++ {
		for x := uint32(0); x < width; x++ {
			binary.Write(buf, binary.LittleEndian, float32(x)+10*float32(z))
		}
	}
	return buf.Bytes()
}

func TestParseHeightGrid_ValidFile(t *testing.T) {
	g, err := ParseHeightGrid(createTestHGT(3, 4, 2.5))
	if err != nil {
		t.Fatalf("ParseHeightGrid failed: %v", err)
	}
	if g.Version != HGTVersion {
		t.Errorf("expected version %s, got %s", HGTVersion, g.Version)
	}
	if g.Width != 3 || g.Depth != 4 {
		t.Errorf("expected 3x4, got %dx%d", g.Width, g.Depth)
	}
	if g.CellSize != 2.5 {
		t.Errorf("expected cell size 2.5, got %f", g.CellSize)
	}
	if g.Origin != (math.Vec3{X: -5, Z: -5}) {
		t.Errorf("unexpected origin %v", g.Origin)
	}
	if h := g.At(2, 3); h != 32 {
		t.Errorf("expected height 32 at (2,3), got %f", h)
	}
	// Clamped lookups
	if h := g.At(-1, 9); h != 30 {
		t.Errorf("expected clamped height 30, got %f", h)
	}
	lo, hi := g.HeightRange()
	if lo != 0 || hi != 32 {
		t.Errorf("expected range [0, 32], got [%f, %f]", lo, hi)
	}
}

func TestHeightGrid_RoundTrip(t *testing.T) {
	g := NewHeightGrid(4, 2, 1, math.Vec3{Y: 3})
	g.Set(1, 1, 7.5)
	g.Set(10, 10, 99) // ignored

	data, err := EncodeHeightGrid(g)
	if err != nil {
		t.Fatalf("EncodeHeightGrid failed: %v", err)
	}
	back, err := ParseHeightGrid(data)
	if err != nil {
		t.Fatalf("ParseHeightGrid failed: %v", err)
	}
	if back.At(1, 1) != 7.5 {
		t.Errorf("expected 7.5, got %f", back.At(1, 1))
	}
	if back.Origin.Y != 3 {
		t.Errorf("expected origin Y 3, got %f", back.Origin.Y)
	}
	if len(back.Heights) != 8 {
		t.Errorf("expected 8 samples, got %d", len(back.Heights))
	}
}

func TestParseHeightGrid_Errors(t *testing.T) {
	good := createTestHGT(2, 2, 1)

	badVersion := append([]byte(nil), good...)
	badVersion[5] = 2

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrTruncatedHGTData},
		{"bad magic", []byte("SPLN...."), ErrInvalidHGTMagic},
		{"bad version", badVersion, ErrUnsupportedHGTVersion},
		{"truncated heights", good[:len(good)-2], ErrTruncatedHGTData},
		{"too small", createTestHGT(1, 5, 1), nil},
		{"zero cell", createTestHGT(2, 2, 0), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeightGrid(tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := EncodeHeightGrid(&HeightGrid{Width: 2, Depth: 2}); err == nil {
		t.Error("expected sample count error")
	}
}
