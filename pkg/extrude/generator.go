package extrude

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-spline/pkg/spline"
)

// RegenMode selects when a Generator rebuilds its meshes.
type RegenMode int

const (
	// RegenRealtime rebuilds after every spline change.
	RegenRealtime RegenMode = iota
	// RegenManual only marks the generator dirty until Regenerate is called.
	RegenManual
)

func (m RegenMode) String() string {
	switch m {
	case RegenRealtime:
		return "realtime"
	case RegenManual:
		return "manual"
	default:
		return fmt.Sprintf("RegenMode(%d)", int(m))
	}
}

// ParseRegenMode parses "realtime" or "manual".
func ParseRegenMode(s string) (RegenMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "realtime", "":
		return RegenRealtime, nil
	case "manual":
		return RegenManual, nil
	}
	return RegenRealtime, fmt.Errorf("unknown regen mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m RegenMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *RegenMode) UnmarshalText(b []byte) error {
	v, err := ParseRegenMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Generator keeps the extruded meshes of one spline up to date. It is
// driven from the goroutine that edits the spline; the published results
// may be read from any goroutine.
type Generator struct {
	spline  *spline.Spline
	profile *Profile
	opts    Options
	mode    RegenMode
	log     *zap.Logger

	dirty    bool
	revision uint64
	results  atomic.Pointer[[]Result]
	cancel   func()
	lastErr  error
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger sets the generator's logger.
func WithLogger(l *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// WithMode sets the regeneration mode.
func WithMode(m RegenMode) GeneratorOption {
	return func(g *Generator) { g.mode = m }
}

// NewGenerator subscribes to s. In realtime mode the first build happens
// immediately; in manual mode the generator starts dirty.
func NewGenerator(s *spline.Spline, profile *Profile, opts Options, options ...GeneratorOption) *Generator {
	g := &Generator{
		spline:  s,
		profile: profile,
		opts:    opts,
		log:     zap.NewNop(),
		dirty:   true,
	}
	for _, o := range options {
		o(g)
	}
	g.cancel = s.OnChange(g.onChange)
	if g.mode == RegenRealtime {
		_, _ = g.Regenerate()
	}
	return g
}

func (g *Generator) onChange(_ *spline.Spline, c spline.Change) {
	g.dirty = true
	g.log.Debug("spline changed",
		zap.Stringer("kind", c.Kind),
		zap.Int("index", c.Index),
		zap.Stringer("mode", g.mode))
	if g.mode == RegenRealtime {
		_, _ = g.Regenerate()
	}
}

// Regenerate rebuilds and publishes the results. On error the previous
// results stay published and the generator stays dirty.
func (g *Generator) Regenerate() ([]Result, error) {
	res, err := ExtrudeSpline(g.spline, g.profile, g.opts)
	g.lastErr = err
	if err != nil {
		g.log.Warn("extrusion failed", zap.Error(err))
		return nil, err
	}
	g.revision++
	g.dirty = false
	g.results.Store(&res)

	fields := []zap.Field{
		zap.Uint64("revision", g.revision),
		zap.Int("pieces", len(res)),
		zap.Float32("length", g.spline.Length()),
	}
	for _, r := range res {
		if r.Overflow != nil {
			fields = append(fields,
				zap.Int("overflowCurve", r.Overflow.CurveIndex),
				zap.Int("overflowLOD", r.Overflow.LOD))
			g.log.Warn("vertex budget exceeded", fields...)
			return res, nil
		}
	}
	g.log.Debug("regenerated", fields...)
	return res, nil
}

// Results returns the last published results, or nil before the first
// successful build.
func (g *Generator) Results() []Result {
	if p := g.results.Load(); p != nil {
		return *p
	}
	return nil
}

// Dirty reports whether the spline changed since the last build.
func (g *Generator) Dirty() bool { return g.dirty }

// Revision counts successful builds.
func (g *Generator) Revision() uint64 { return g.revision }

// Err returns the error of the last build attempt.
func (g *Generator) Err() error { return g.lastErr }

// Mode returns the regeneration mode.
func (g *Generator) Mode() RegenMode { return g.mode }

// SetMode switches modes. Switching to realtime while dirty rebuilds.
func (g *Generator) SetMode(m RegenMode) {
	g.mode = m
	if m == RegenRealtime && g.dirty {
		_, _ = g.Regenerate()
	}
}

// Close stops listening to the spline.
func (g *Generator) Close() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}
