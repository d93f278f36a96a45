package main

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-spline/internal/config"
	"github.com/Faultbox/midgard-spline/internal/terrain"
	"github.com/Faultbox/midgard-spline/pkg/extrude"
)

const capSegments = 12

// buildProfile turns the mesh section of the config into an extrusion
// profile. Each LOD ratio scales the strip's column count; boxes have a
// fixed cross-section and reuse the same mesh for every level.
func buildProfile(mc config.MeshConfig) (*extrude.Profile, error) {
	p := &extrude.Profile{
		VertexBudget: mc.VertexBudget,
		AutoSplit:    mc.AutoSplit,
	}
	for _, ratio := range mc.LODRatios {
		var mesh *extrude.BaseMesh
		switch mc.Shape {
		case "strip":
			cols := max(1, int(math32.Round(float32(mc.Columns)*ratio)))
			mesh = extrude.Strip(mc.Width, mc.Length, cols)
		case "box":
			mesh = extrude.Box(mc.Width, mc.Height, mc.Length)
		default:
			return nil, fmt.Errorf("unknown mesh shape %q", mc.Shape)
		}
		p.LODs = append(p.LODs, extrude.LOD{Mesh: mesh, TransitionRatio: ratio})
	}
	if mc.Caps {
		p.StartCap = extrude.Disc(mc.Width/2, capSegments)
		p.EndCap = extrude.Disc(mc.Width/2, capSegments)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// buildOptions returns the extrusion options, loading the terrain grid when
// one is configured.
func buildOptions(cfg *config.Config) (extrude.Options, error) {
	opts := extrude.Options{
		Sampling: extrude.Sampling{
			Spacing:     cfg.Sampling.Spacing,
			Resolution:  float32(cfg.Sampling.Resolution),
			MaxDistance: cfg.Sampling.MaxDistance,
		},
	}
	if cfg.Terrain.Path != "" {
		hm, err := terrain.Load(cfg.Terrain.Path)
		if err != nil {
			return opts, fmt.Errorf("loading terrain: %w", err)
		}
		opts.Sampling.Surface = hm
	}
	return opts, nil
}
