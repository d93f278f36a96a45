package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/midgard-spline/pkg/extrude"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Sampling.Spacing != 1 {
		t.Errorf("expected spacing 1, got %f", cfg.Sampling.Spacing)
	}
	if cfg.Sampling.Resolution != 32 {
		t.Errorf("expected resolution 32, got %d", cfg.Sampling.Resolution)
	}
	if cfg.Nearest.Iterations != 8 {
		t.Errorf("expected 8 nearest iterations, got %d", cfg.Nearest.Iterations)
	}
	if cfg.Fit.Closed {
		t.Error("expected open fitting by default")
	}
	if cfg.Mesh.Shape != "strip" {
		t.Errorf("expected strip shape, got %s", cfg.Mesh.Shape)
	}
	if !cfg.Mesh.AutoSplit {
		t.Error("expected auto split to be enabled by default")
	}
	if cfg.Mesh.VertexBudget != 65535 {
		t.Errorf("expected vertex budget 65535, got %d", cfg.Mesh.VertexBudget)
	}
	if cfg.Regen.Mode != extrude.RegenRealtime {
		t.Errorf("expected realtime regen, got %s", cfg.Regen.Mode)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
sampling:
  spacing: 0.5
  resolution: 64
  max_distance: 3

fit:
  max_error: 0.25
  closed: true

mesh:
  shape: box
  vertex_budget: 4000
  auto_split: false
  lod_ratios: [1, 0.5, 0.25]
  caps: true

regen:
  mode: manual

terrain:
  path: "ground.hgt"

logging:
  level: "debug"
  log_file: "spline.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Sampling.Spacing != 0.5 {
		t.Errorf("expected spacing 0.5, got %f", cfg.Sampling.Spacing)
	}
	if cfg.Sampling.MaxDistance != 3 {
		t.Errorf("expected max distance 3, got %f", cfg.Sampling.MaxDistance)
	}
	if !cfg.Fit.Closed || cfg.Fit.MaxError != 0.25 {
		t.Errorf("unexpected fit config %+v", cfg.Fit)
	}
	if cfg.Mesh.Shape != "box" || cfg.Mesh.VertexBudget != 4000 || cfg.Mesh.AutoSplit || !cfg.Mesh.Caps {
		t.Errorf("unexpected mesh config %+v", cfg.Mesh)
	}
	if len(cfg.Mesh.LODRatios) != 3 || cfg.Mesh.LODRatios[2] != 0.25 {
		t.Errorf("expected 3 LOD ratios, got %v", cfg.Mesh.LODRatios)
	}
	if cfg.Regen.Mode != extrude.RegenManual {
		t.Errorf("expected manual regen, got %s", cfg.Regen.Mode)
	}
	if cfg.Terrain.Path != "ground.hgt" {
		t.Errorf("expected terrain ground.hgt, got %s", cfg.Terrain.Path)
	}
	if cfg.Logging.LogFile != "spline.log" {
		t.Errorf("expected log file 'spline.log', got %s", cfg.Logging.LogFile)
	}

	// Untouched sections keep their defaults
	if cfg.Nearest.Resolution != 16 {
		t.Errorf("expected default nearest resolution, got %d", cfg.Nearest.Resolution)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "sampling:\n  spacing: not a number\n  invalid syntax here\n"},
		{"regen mode", "regen:\n  mode: sometimes\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	err := loadFromFile(Default(), "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"spacing", func(c *Config) { c.Sampling.Spacing = 0 }, "sampling.spacing"},
		{"resolution", func(c *Config) { c.Sampling.Resolution = 0 }, "sampling.resolution"},
		{"nearest", func(c *Config) { c.Nearest.Resolution = -1 }, "nearest.resolution"},
		{"max error", func(c *Config) { c.Fit.MaxError = 0 }, "fit.max_error"},
		{"epsilon", func(c *Config) { c.Simplify.Epsilon = -1 }, "simplify.epsilon"},
		{"shape", func(c *Config) { c.Mesh.Shape = "tube" }, "mesh.shape"},
		{"budget", func(c *Config) { c.Mesh.VertexBudget = -5 }, "mesh.vertex_budget"},
		{"lods", func(c *Config) { c.Mesh.LODRatios = nil }, "mesh.lod_ratios"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("splinetool.yaml", []byte("sampling:\n  spacing: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find splinetool.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "spacing flag",
			setup: func() { *flagSpacing = 0.25 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Sampling.Spacing != 0.25 {
					t.Errorf("expected spacing 0.25, got %f", cfg.Sampling.Spacing)
				}
			},
			teardown: func() { *flagSpacing = 0 },
		},
		{
			name:  "unlimited budget",
			setup: func() { *flagBudget = 0 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Mesh.VertexBudget != 0 {
					t.Errorf("expected unlimited budget, got %d", cfg.Mesh.VertexBudget)
				}
			},
			teardown: func() { *flagBudget = -1 },
		},
		{
			name:  "no split and manual",
			setup: func() { *flagNoSplit, *flagManual = true, true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Mesh.AutoSplit {
					t.Error("expected auto split to be disabled")
				}
				if cfg.Regen.Mode != extrude.RegenManual {
					t.Errorf("expected manual regen, got %s", cfg.Regen.Mode)
				}
			},
			teardown: func() { *flagNoSplit, *flagManual = false, false },
		},
		{
			name:  "fit flags",
			setup: func() { *flagMaxError, *flagClosed, *flagEpsilon = 0.5, true, 0 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Fit.MaxError != 0.5 || !cfg.Fit.Closed {
					t.Errorf("unexpected fit config %+v", cfg.Fit)
				}
				if cfg.Simplify.Epsilon != 0 {
					t.Errorf("expected epsilon 0, got %f", cfg.Simplify.Epsilon)
				}
			},
			teardown: func() { *flagMaxError, *flagClosed, *flagEpsilon = 0, false, -1 },
		},
		{
			name:  "terrain flag",
			setup: func() { *flagTerrain = "hills.hgt" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.Path != "hills.hgt" {
					t.Errorf("expected terrain hills.hgt, got %s", cfg.Terrain.Path)
				}
			},
			teardown: func() { *flagTerrain = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
sampling:
  spacing: 2
  resolution: 8
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagSpacing = 3
	defer func() {
		*flagConfig = ""
		*flagSpacing = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Sampling.Spacing != 3 {
		t.Errorf("expected spacing 3 from flag, got %f", cfg.Sampling.Spacing)
	}
	if cfg.Sampling.Resolution != 8 {
		t.Errorf("expected resolution 8 from file, got %d", cfg.Sampling.Resolution)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("mesh:\n  shape: tube\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected invalid config error")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Regen.Mode = extrude.RegenManual
	cfg.Mesh.LODRatios = []float32{1, 0.5}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	if !strings.Contains(string(data), "mode: manual") {
		t.Errorf("expected textual regen mode in:\n%s", data)
	}

	back := Default()
	if err := loadFromFile(back, path); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if back.Regen.Mode != extrude.RegenManual || len(back.Mesh.LODRatios) != 2 {
		t.Errorf("saved config did not round trip: %+v", back)
	}
}
