// splinetool is a CLI utility for inspecting, fitting and extruding splines.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-spline/internal/config"
	"github.com/Faultbox/midgard-spline/internal/logger"
	"github.com/Faultbox/midgard-spline/pkg/extrude"
	"github.com/Faultbox/midgard-spline/pkg/fit"
	"github.com/Faultbox/midgard-spline/pkg/math"
	"github.com/Faultbox/midgard-spline/pkg/spline"
)

var errUsage = errors.New("usage")

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command, rest := args[0], args[1:]
	var run func(*config.Config, []string) error
	switch command {
	case "info":
		run = cmdInfo
	case "sample":
		run = cmdSample
	case "extrude", "x":
		run = cmdExtrude
	case "fit":
		run = cmdFit
	case "simplify":
		run = cmdSimplify
	case "nearest":
		run = cmdNearest
	case "watch":
		run = cmdWatch
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err := run(cfg, rest); err != nil {
		if !errors.Is(err, errUsage) {
			logFailure(command, err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

// logFailure reports a failed command on stderr through the logger.
func logFailure(command string, err error) {
	logger.Error("command failed", zap.String("command", command), zap.Error(err))
}

func printUsage() {
	fmt.Println(`splinetool - spline inspection, fitting and mesh extrusion

Usage:
  splinetool [global options] <command> [options]

Commands:
  info <spline>                      Show spline information
  sample <spline>                    Print evenly spaced oriented points
  extrude <spline> <out.obj>         Extrude the configured profile to OBJ
  fit <points.txt> <out>             Fit a spline through a point list
  simplify <points.txt> [out.txt]    Simplify a polyline
  nearest <spline> <x> <y> <z>       Find the closest point on the spline
  watch <spline> <out.obj>           Re-export whenever the spline file changes

Splines are read from .spl (binary) or .yaml files.

Global options:
  -config <file>   Config file (default ./splinetool.yaml)
  -debug           Enable debug logging
  -spacing <d>     Sample spacing
  -budget <n>      Vertex budget per mesh (0 = unlimited)
  -no-split        Disable automatic spline splitting
  -manual          Regenerate only on request (watch)
  -terrain <file>  Project samples onto a height grid (.hgt)
  -max-error <e>   Fitting tolerance
  -closed          Fit input as a closed shape
  -epsilon <e>     Simplification tolerance

Examples:
  splinetool info road.spl
  splinetool -budget 4000 extrude road.yaml road.obj
  splinetool -closed fit outline.txt outline.spl
  splinetool -manual watch road.yaml road.obj`)
}

func usage(text string) error {
	fmt.Fprintln(os.Stderr, "Usage: splinetool "+text)
	return errUsage
}

func cmdInfo(_ *config.Config, args []string) error {
	if len(args) < 1 {
		return usage("info <spline>")
	}
	s, err := loadSpline(args[0])
	if err != nil {
		return err
	}

	lo, hi := s.Bounds()
	fmt.Printf("Spline:   %s\n", args[0])
	fmt.Printf("ID:       %s\n", s.ID())
	fmt.Printf("Curves:   %d\n", s.CurveCount())
	fmt.Printf("Points:   %d\n", s.ControlPointCount())
	fmt.Printf("Loop:     %v\n", s.Loop())
	fmt.Printf("Static:   %v\n", s.Static())
	fmt.Printf("Length:   %.3f\n", s.Length())
	fmt.Printf("Bounds:   (%.2f, %.2f, %.2f) - (%.2f, %.2f, %.2f)\n", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
	fmt.Println()
	fmt.Println("Anchors:")
	for i := 0; i < s.ControlPointCount(); i += 3 {
		p := s.ControlPoint(i)
		fmt.Printf("  %3d  %-9s (%.3f, %.3f, %.3f)\n", i, s.Mode(i), p.X, p.Y, p.Z)
	}
	return nil
}

func cmdSample(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N points (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usage("sample [-n N] <spline>")
	}
	s, err := loadSpline(fs.Arg(0))
	if err != nil {
		return err
	}
	opts, err := buildOptions(cfg)
	if err != nil {
		return err
	}

	var sampleOpts []spline.SampleOption
	if opts.Sampling.Surface != nil {
		sampleOpts = append(sampleOpts, spline.WithProjection(opts.Sampling.Surface, opts.Sampling.MaxDistance))
	}
	frames, err := s.CalculateOrientedPoints(opts.Sampling.Spacing, opts.Sampling.Resolution, sampleOpts...)
	if err != nil {
		return err
	}

	fmt.Printf("%-10s %-6s %-32s %s\n", "distance", "curve", "position", "forward")
	for i, f := range frames {
		if *limit > 0 && i >= *limit {
			break
		}
		fmt.Printf("%-10.3f %-6d (%8.3f, %8.3f, %8.3f)  (%6.3f, %6.3f, %6.3f)\n",
			f.Distance, f.CurveIndex,
			f.Position.X, f.Position.Y, f.Position.Z,
			f.Forward.X, f.Forward.Y, f.Forward.Z)
	}
	fmt.Fprintf(os.Stderr, "\n(%d points, spacing %g)\n", len(frames), opts.Sampling.Spacing)
	return nil
}

func cmdExtrude(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return usage("extrude <spline> <out.obj>")
	}
	s, err := loadSpline(args[0])
	if err != nil {
		return err
	}
	profile, err := buildProfile(cfg.Mesh)
	if err != nil {
		return err
	}
	opts, err := buildOptions(cfg)
	if err != nil {
		return err
	}

	results, err := extrude.ExtrudeSpline(s, profile, opts)
	if err != nil {
		return err
	}
	for i, r := range results {
		logger.Info("piece",
			zap.Int("index", i),
			zap.Int("curves", r.Spline.CurveCount()),
			zap.Int("vertices", r.VertexCount()),
			zap.Bool("startCap", r.StartCap.Enabled),
			zap.Bool("endCap", r.EndCap.Enabled))
		if r.Overflow != nil {
			logger.Warn("vertex budget exceeded",
				zap.Int("piece", i),
				zap.Int("lod", r.Overflow.LOD),
				zap.Int("curve", r.Overflow.CurveIndex),
				zap.Int("budget", profile.VertexBudget))
		}
	}
	if err := writeResults(args[1], results); err != nil {
		return err
	}
	fmt.Printf("Wrote %d piece(s) to %s\n", len(results), args[1])
	return nil
}

func cmdFit(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fit", flag.ExitOnError)
	presimplify := fs.Bool("simplify", false, "Simplify the input before fitting")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return usage("fit [-simplify] <points.txt> <out.spl|out.yaml>")
	}
	pts, err := readPointsFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if *presimplify {
		before := len(pts)
		pts = fit.Simplify(pts, cfg.Simplify.Epsilon)
		logger.Debug("simplified input", zap.Int("before", before), zap.Int("after", len(pts)))
	}

	s, ok := fit.Curve(pts, cfg.Fit.MaxError, cfg.Fit.Closed)
	if !ok {
		return fmt.Errorf("need at least two distinct points, got %d", len(pts))
	}
	if err := saveSpline(fs.Arg(1), s); err != nil {
		return err
	}
	fmt.Printf("Fitted %d points with %d curve(s) (loop=%v) to %s\n", len(pts), s.CurveCount(), s.Loop(), fs.Arg(1))
	return nil
}

func cmdSimplify(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return usage("simplify <points.txt> [out.txt]")
	}
	pts, err := readPointsFile(args[0])
	if err != nil {
		return err
	}
	kept := fit.Simplify(pts, cfg.Simplify.Epsilon)

	out := os.Stdout
	if len(args) > 1 {
		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := writePoints(out, kept); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "(%d of %d points kept)\n", len(kept), len(pts))
	return nil
}

func cmdNearest(cfg *config.Config, args []string) error {
	if len(args) < 4 {
		return usage("nearest <spline> <x> <y> <z>")
	}
	s, err := loadSpline(args[0])
	if err != nil {
		return err
	}
	var v [3]float32
	for i := range v {
		f, err := strconv.ParseFloat(args[i+1], 32)
		if err != nil {
			return fmt.Errorf("coordinate %d: %w", i, err)
		}
		v[i] = float32(f)
	}

	n := s.NearestToPoint(math.Vec3{X: v[0], Y: v[1], Z: v[2]}, cfg.Nearest.Resolution, cfg.Nearest.Iterations)
	fmt.Printf("Point:    (%.4f, %.4f, %.4f)\n", n.Point.X, n.Point.Y, n.Point.Z)
	fmt.Printf("T:        %.5f\n", n.T)
	fmt.Printf("Distance: %.4f\n", n.Distance)
	return nil
}

func cmdWatch(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return usage("watch <spline> <out.obj>")
	}
	profile, err := buildProfile(cfg.Mesh)
	if err != nil {
		return err
	}
	opts, err := buildOptions(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := &watcher{
		path:    args[0],
		out:     args[1],
		profile: profile,
		opts:    opts,
		mode:    cfg.Regen.Mode,
		log:     logger.Named("watch"),
	}
	logger.Info("watching", zap.String("path", args[0]), zap.Stringer("mode", cfg.Regen.Mode))
	return w.run(ctx, os.Stdin)
}
