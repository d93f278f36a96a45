package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-spline/internal/config"
	"github.com/Faultbox/midgard-spline/pkg/formats"
	"github.com/Faultbox/midgard-spline/pkg/math"
	"github.com/Faultbox/midgard-spline/pkg/spline"
)

func TestBuildProfileStripLODs(t *testing.T) {
	mc := config.Default().Mesh
	mc.Columns = 8
	mc.LODRatios = []float32{1, 0.5, 0.01}
	mc.Caps = true

	p, err := buildProfile(mc)
	require.NoError(t, err)
	require.Len(t, p.LODs, 3)

	// Two rows of columns+1 vertices
	assert.Len(t, p.LODs[0].Mesh.Vertices, 18)
	assert.Len(t, p.LODs[1].Mesh.Vertices, 10)
	assert.Len(t, p.LODs[2].Mesh.Vertices, 4, "columns never drop below one")
	assert.Equal(t, float32(0.5), p.LODs[1].TransitionRatio)
	assert.NotNil(t, p.StartCap)
	assert.NotNil(t, p.EndCap)
	assert.Equal(t, mc.VertexBudget, p.VertexBudget)
	assert.True(t, p.AutoSplit)
}

func TestBuildProfileBox(t *testing.T) {
	mc := config.Default().Mesh
	mc.Shape = "box"
	mc.LODRatios = []float32{1, 0.5}

	p, err := buildProfile(mc)
	require.NoError(t, err)
	assert.Len(t, p.LODs[0].Mesh.Vertices, len(p.LODs[1].Mesh.Vertices))
	assert.Len(t, p.LODs[1].Mesh.SubMeshes, 2)
	assert.Nil(t, p.StartCap)

	mc.Shape = "tube"
	_, err = buildProfile(mc)
	assert.Error(t, err)

	mc.Shape = "strip"
	mc.LODRatios = nil
	_, err = buildProfile(mc)
	assert.Error(t, err)
}

func TestBuildOptionsTerrain(t *testing.T) {
	cfg := config.Default()
	opts, err := buildOptions(cfg)
	require.NoError(t, err)
	assert.Nil(t, opts.Sampling.Surface)
	assert.Equal(t, cfg.Sampling.Spacing, opts.Sampling.Spacing)

	g := formats.NewHeightGrid(5, 5, 10, math.Vec3{X: -20, Y: 2, Z: -20})
	path := filepath.Join(t.TempDir(), "ground.hgt")
	data, err := formats.EncodeHeightGrid(g)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg.Terrain.Path = path
	opts, err = buildOptions(cfg)
	require.NoError(t, err)
	require.NotNil(t, opts.Sampling.Surface)

	s := road(t)
	frames, err := s.CalculateOrientedPoints(1, 16, spline.WithProjection(opts.Sampling.Surface, opts.Sampling.MaxDistance))
	require.NoError(t, err)
	for _, f := range frames {
		assert.InDelta(t, 2, f.Position.Y, 1e-5)
	}

	cfg.Terrain.Path = path + ".missing"
	_, err = buildOptions(cfg)
	assert.ErrorContains(t, err, "loading terrain")
}
