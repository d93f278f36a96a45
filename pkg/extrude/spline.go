package extrude

import (
	"fmt"

	"github.com/Faultbox/midgard-spline/pkg/spline"
)

// DefaultSeamEpsilon is the distance under which two spline ends count as
// joined when deciding caps.
const DefaultSeamEpsilon = 1e-3

// Sampling controls how frames are taken from a spline before extrusion.
type Sampling struct {
	Spacing     float32
	Resolution  float32
	Surface     spline.HeightField // optional terrain to follow
	MaxDistance float32            // projection reach when Surface is set
}

// Options configure ExtrudeSpline.
type Options struct {
	Sampling    Sampling
	Neighbors   []*spline.Spline // splines whose ends suppress caps
	SeamEpsilon float32
}

func (o Options) frames(s *spline.Spline) ([]spline.OrientedPoint, error) {
	var opts []spline.SampleOption
	if o.Sampling.Surface != nil {
		opts = append(opts, spline.WithProjection(o.Sampling.Surface, o.Sampling.MaxDistance))
	}
	return s.CalculateOrientedPoints(o.Sampling.Spacing, o.Sampling.Resolution, opts...)
}

func (o Options) seamEpsilon() float32 {
	if o.SeamEpsilon > 0 {
		return o.SeamEpsilon
	}
	return DefaultSeamEpsilon
}

// ExtrudeSpline samples s and extrudes profile along it. When the vertex
// budget overflows and the profile allows auto-split, a copy of s is cut at
// the anchor starting the overflowing curve and both halves are extruded
// again, recursively. s itself is never modified.
//
// One Result is returned per produced piece, in order along the spline.
// Each carries the piece in Result.Spline and s's ID in SourceID. A piece
// that still overflows (a single curve over budget, or a loop) keeps its
// Overflow.
func ExtrudeSpline(s *spline.Spline, profile *Profile, opts Options) ([]Result, error) {
	if s == nil {
		return nil, spline.ErrNilSpline
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	pieces, err := extrudePieces(s.Clone(), profile, opts)
	if err != nil {
		return nil, err
	}

	splines := make([]*spline.Spline, len(pieces))
	for i := range pieces {
		splines[i] = pieces[i].piece
	}
	out := make([]Result, len(pieces))
	for i, p := range pieces {
		neighbors := append(append([]*spline.Spline(nil), opts.Neighbors...), splines...)
		connected := spline.Connections(p.piece, neighbors, opts.seamEpsilon())
		res, err := Extrude(p.frames, profile, connected)
		if err != nil {
			return nil, err
		}
		res.SourceID = s.ID()
		res.Spline = p.piece
		out[i] = res
	}
	return out, nil
}

type piece struct {
	piece  *spline.Spline
	frames []spline.OrientedPoint
}

func extrudePieces(s *spline.Spline, profile *Profile, opts Options) ([]piece, error) {
	frames, err := opts.frames(s)
	if err != nil {
		return nil, fmt.Errorf("sampling: %w", err)
	}
	if !profile.AutoSplit || profile.VertexBudget <= 0 {
		return []piece{{s, frames}}, nil
	}

	of := firstOverflow(frames, profile)
	if of == nil || of.CurveIndex <= 0 || s.Loop() {
		return []piece{{s, frames}}, nil
	}
	tail, err := s.SplitSpline(3 * of.CurveIndex)
	if err != nil {
		return []piece{{s, frames}}, nil
	}
	head, err := extrudePieces(s, profile, opts)
	if err != nil {
		return nil, err
	}
	rest, err := extrudePieces(tail, profile, opts)
	if err != nil {
		return nil, err
	}
	return append(head, rest...), nil
}

func firstOverflow(frames []spline.OrientedPoint, profile *Profile) *Overflow {
	for i, lod := range profile.LODs {
		if _, of := sweep(lod.Mesh, frames, profile.VertexBudget); of != nil {
			of.LOD = i
			return of
		}
	}
	return nil
}
