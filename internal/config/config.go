// Package config handles spline tool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-spline/pkg/extrude"
)

// Config holds all tool settings.
type Config struct {
	Sampling SamplingConfig `yaml:"sampling"`
	Nearest  NearestConfig  `yaml:"nearest"`
	Fit      FitConfig      `yaml:"fit"`
	Simplify SimplifyConfig `yaml:"simplify"`
	Mesh     MeshConfig     `yaml:"mesh"`
	Regen    RegenConfig    `yaml:"regen"`
	Terrain  TerrainConfig  `yaml:"terrain"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SamplingConfig holds arc-length sampling settings.
type SamplingConfig struct {
	Spacing     float32 `yaml:"spacing"`
	Resolution  int     `yaml:"resolution"`   // Length-table steps per curve
	MaxDistance float32 `yaml:"max_distance"` // Surface projection reach
}

// NearestConfig holds nearest-point search settings.
type NearestConfig struct {
	Resolution int `yaml:"resolution"`
	Iterations int `yaml:"iterations"`
}

// FitConfig holds curve fitting settings.
type FitConfig struct {
	MaxError float32 `yaml:"max_error"`
	Closed   bool    `yaml:"closed"`
}

// SimplifyConfig holds polyline simplification settings.
type SimplifyConfig struct {
	Epsilon float32 `yaml:"epsilon"`
}

// MeshConfig describes the extrusion profile.
type MeshConfig struct {
	Shape        string    `yaml:"shape"` // "strip" or "box"
	Width        float32   `yaml:"width"`
	Height       float32   `yaml:"height"`
	Length       float32   `yaml:"length"`
	Columns      int       `yaml:"columns"`
	VertexBudget int       `yaml:"vertex_budget"` // 0 = unlimited
	AutoSplit    bool      `yaml:"auto_split"`
	LODRatios    []float32 `yaml:"lod_ratios"`
	Caps         bool      `yaml:"caps"`
}

// RegenConfig holds regeneration settings.
type RegenConfig struct {
	Mode extrude.RegenMode `yaml:"mode"`
}

// TerrainConfig holds the optional height grid used for projection.
type TerrainConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Sampling: SamplingConfig{
			Spacing:     1,
			Resolution:  32,
			MaxDistance: 10,
		},
		Nearest: NearestConfig{
			Resolution: 16,
			Iterations: 8,
		},
		Fit: FitConfig{
			MaxError: 0.1,
		},
		Simplify: SimplifyConfig{
			Epsilon: 0.05,
		},
		Mesh: MeshConfig{
			Shape:        "strip",
			Width:        4,
			Height:       0.5,
			Length:       1,
			Columns:      4,
			VertexBudget: 65535,
			AutoSplit:    true,
			LODRatios:    []float32{1},
			Caps:         false,
		},
		Regen: RegenConfig{
			Mode: extrude.RegenRealtime,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings the engine would reject.
func (c *Config) Validate() error {
	var errs []error
	if !(c.Sampling.Spacing > 0) {
		errs = append(errs, fmt.Errorf("sampling.spacing must be positive, got %g", c.Sampling.Spacing))
	}
	if c.Sampling.Resolution < 1 {
		errs = append(errs, fmt.Errorf("sampling.resolution must be at least 1, got %d", c.Sampling.Resolution))
	}
	if c.Nearest.Resolution < 1 {
		errs = append(errs, fmt.Errorf("nearest.resolution must be at least 1, got %d", c.Nearest.Resolution))
	}
	if c.Fit.MaxError <= 0 {
		errs = append(errs, fmt.Errorf("fit.max_error must be positive, got %g", c.Fit.MaxError))
	}
	if c.Simplify.Epsilon < 0 {
		errs = append(errs, fmt.Errorf("simplify.epsilon must not be negative, got %g", c.Simplify.Epsilon))
	}
	if c.Mesh.Shape != "strip" && c.Mesh.Shape != "box" {
		errs = append(errs, fmt.Errorf("mesh.shape must be strip or box, got %q", c.Mesh.Shape))
	}
	if c.Mesh.VertexBudget < 0 {
		errs = append(errs, fmt.Errorf("mesh.vertex_budget must not be negative, got %d", c.Mesh.VertexBudget))
	}
	if len(c.Mesh.LODRatios) == 0 {
		errs = append(errs, errors.New("mesh.lod_ratios must list at least one level"))
	}
	return errors.Join(errs...)
}
