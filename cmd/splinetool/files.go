package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/midgard-spline/pkg/formats"
	"github.com/Faultbox/midgard-spline/pkg/math"
	"github.com/Faultbox/midgard-spline/pkg/spline"
)

// loadSpline reads a binary .spl file or a YAML spline document.
func loadSpline(path string) (*spline.Spline, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spl":
		return formats.ParseSplineFile(path)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return spline.UnmarshalYAML(data)
	default:
		return nil, fmt.Errorf("unknown spline format %q (want .spl or .yaml)", filepath.Ext(path))
	}
}

// saveSpline writes s in the format matching path's extension.
func saveSpline(path string, s *spline.Spline) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spl":
		return formats.WriteSplineFile(path, s)
	case ".yaml", ".yml":
		data, err := spline.MarshalYAML(s)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0644)
	default:
		return fmt.Errorf("unknown spline format %q (want .spl or .yaml)", filepath.Ext(path))
	}
}

// readPoints parses one point per line as "x y z" or "x,y,z". Blank lines
// and lines starting with # are skipped.
func readPoints(r io.Reader) ([]math.Vec3, error) {
	var pts []math.Vec3
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(strings.ReplaceAll(text, ",", " "))
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 coordinates, got %d", line, len(fields))
		}
		var v [3]float32
		for i, f := range fields {
			x, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			v[i] = float32(x)
		}
		pts = append(pts, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return pts, nil
}

func readPointsFile(path string) ([]math.Vec3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readPoints(f)
}

func writePoints(w io.Writer, pts []math.Vec3) error {
	bw := bufio.NewWriter(w)
	for _, p := range pts {
		fmt.Fprintf(bw, "%g %g %g\n", p.X, p.Y, p.Z)
	}
	return bw.Flush()
}
