package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-spline/pkg/math"
	"github.com/Faultbox/midgard-spline/pkg/spline"
)

func road(t *testing.T) *spline.Spline {
	t.Helper()
	s, err := spline.NewFromPoints([]math.Vec3{
		{}, {Z: 2}, {X: 1, Z: 4}, {X: 2, Z: 6},
		{X: 3, Z: 8}, {X: 3, Z: 10}, {X: 3, Z: 12},
	})
	require.NoError(t, err)
	return s
}

func TestReadPoints(t *testing.T) {
	in := `# outline
0 0 0
1,2,3

  4.5 -1 2e1
`
	pts, err := readPoints(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []math.Vec3{{}, {X: 1, Y: 2, Z: 3}, {X: 4.5, Y: -1, Z: 20}}, pts)

	_, err = readPoints(strings.NewReader("1 2\n"))
	assert.ErrorContains(t, err, "line 1")
	_, err = readPoints(strings.NewReader("0 0 0\n1 x 2\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestWritePoints(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePoints(&buf, []math.Vec3{{X: 1, Y: 2.5, Z: -3}}))
	assert.Equal(t, "1 2.5 -3\n", buf.String())

	back, err := readPoints(&buf)
	require.NoError(t, err)
	assert.Equal(t, []math.Vec3{{X: 1, Y: 2.5, Z: -3}}, back)
}

func TestSaveLoadSpline(t *testing.T) {
	s := road(t)
	dir := t.TempDir()

	for _, name := range []string{"road.spl", "road.yaml", "road.YML"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, saveSpline(path, s))
			back, err := loadSpline(path)
			require.NoError(t, err)
			assert.Equal(t, s.ID(), back.ID())
			assert.Equal(t, s.ControlPointCount(), back.ControlPointCount())
			assert.InDelta(t, s.Length(), back.Length(), 1e-4)
		})
	}

	assert.Error(t, saveSpline(filepath.Join(dir, "road.json"), s))
	_, err := loadSpline(filepath.Join(dir, "road.json"))
	assert.ErrorContains(t, err, "unknown spline format")
}
