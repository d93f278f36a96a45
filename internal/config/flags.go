package config

import (
	"flag"

	"github.com/Faultbox/midgard-spline/pkg/extrude"
)

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagSpacing  = flag.Float64("spacing", 0, "Sample spacing along the spline")
	flagBudget   = flag.Int("budget", -1, "Vertex budget per mesh (0 = unlimited)")
	flagNoSplit  = flag.Bool("no-split", false, "Disable automatic spline splitting")
	flagManual   = flag.Bool("manual", false, "Regenerate meshes only on request")
	flagTerrain  = flag.String("terrain", "", "Height grid used for projection")
	flagMaxError = flag.Float64("max-error", 0, "Curve fitting error tolerance")
	flagClosed   = flag.Bool("closed", false, "Fit input as a closed shape")
	flagEpsilon  = flag.Float64("epsilon", -1, "Polyline simplification tolerance")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSpacing > 0 {
		cfg.Sampling.Spacing = float32(*flagSpacing)
	}
	if *flagBudget >= 0 {
		cfg.Mesh.VertexBudget = *flagBudget
	}
	if *flagNoSplit {
		cfg.Mesh.AutoSplit = false
	}
	if *flagManual {
		cfg.Regen.Mode = extrude.RegenManual
	}
	if *flagTerrain != "" {
		cfg.Terrain.Path = *flagTerrain
	}
	if *flagMaxError > 0 {
		cfg.Fit.MaxError = float32(*flagMaxError)
	}
	if *flagClosed {
		cfg.Fit.Closed = true
	}
	if *flagEpsilon >= 0 {
		cfg.Simplify.Epsilon = float32(*flagEpsilon)
	}
}
