package curve

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-spline/pkg/math"
)

// NURBS validation errors.
var (
	ErrInvalidDegree = errors.New("nurbs: degree must be at least 1")
	ErrKnotCount     = errors.New("nurbs: knot count must equal control count + degree + 1")
	ErrKnotOrder     = errors.New("nurbs: knots must be non-decreasing")
	ErrWeightCount   = errors.New("nurbs: weight count must equal control count")
)

// Nurbs is a rational B-spline curve. It is evaluated standalone and is not
// part of the Bezier spline model.
type Nurbs struct {
	Degree  int
	Control []math.Vec3
	Weights []float32
	Knots   []float32
}

// NewNurbs validates and copies the curve definition.
// nil weights means every weight is 1.
func NewNurbs(degree int, control []math.Vec3, weights, knots []float32) (*Nurbs, error) {
	if degree < 1 {
		return nil, ErrInvalidDegree
	}
	if len(control) < degree+1 {
		return nil, fmt.Errorf("%w: need at least %d control points, got %d", ErrInvalidDegree, degree+1, len(control))
	}
	if weights == nil {
		weights = make([]float32, len(control))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(control) {
		return nil, fmt.Errorf("%w: %d weights for %d points", ErrWeightCount, len(weights), len(control))
	}
	if len(knots) != len(control)+degree+1 {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrKnotCount, len(knots), len(control)+degree+1)
	}
	for i := 1; i < len(knots); i++ {
		if knots[i] < knots[i-1] {
			return nil, fmt.Errorf("%w: knot %d", ErrKnotOrder, i)
		}
	}

	return &Nurbs{
		Degree:  degree,
		Control: append([]math.Vec3(nil), control...),
		Weights: append([]float32(nil), weights...),
		Knots:   append([]float32(nil), knots...),
	}, nil
}

// ClampedKnots returns a uniform clamped knot vector for n control points.
func ClampedKnots(n, degree int) []float32 {
	m := n + degree + 1
	knots := make([]float32, m)
	inner := n - degree
	for i := range knots {
		switch {
		case i <= degree:
			knots[i] = 0
		case i >= n:
			knots[i] = 1
		default:
			knots[i] = float32(i-degree) / float32(inner)
		}
	}
	return knots
}

// Domain returns the valid parameter range.
func (c *Nurbs) Domain() (lo, hi float32) {
	return c.Knots[c.Degree], c.Knots[len(c.Control)]
}

// span finds the knot span index containing u.
func (c *Nurbs) span(u float32) int {
	n := len(c.Control) - 1
	if u >= c.Knots[n+1] {
		return n
	}
	if u <= c.Knots[c.Degree] {
		return c.Degree
	}
	lo, hi := c.Degree, n+1
	mid := (lo + hi) / 2
	for u < c.Knots[mid] || u >= c.Knots[mid+1] {
		if u < c.Knots[mid] {
			hi = mid
		} else {
			lo = mid
		}
		mid = (lo + hi) / 2
	}
	return mid
}

// Point evaluates the curve at u with de Boor's algorithm on homogeneous
// coordinates. u is clamped to the domain.
func (c *Nurbs) Point(u float32) math.Vec3 {
	lo, hi := c.Domain()
	u = math.Clamp(u, lo, hi)
	k := c.span(u)
	p := c.Degree

	// Homogeneous control points of the active span
	d := make([][4]float32, p+1)
	for j := 0; j <= p; j++ {
		cp := c.Control[j+k-p]
		w := c.Weights[j+k-p]
		d[j] = [4]float32{cp.X * w, cp.Y * w, cp.Z * w, w}
	}

	for r := 1; r <= p; r++ {
		for j := p; j >= r; j-- {
			left := c.Knots[j+k-p]
			right := c.Knots[j+1+k-r]
			var alpha float32
			if right != left {
				alpha = (u - left) / (right - left)
			}
			for i := 0; i < 4; i++ {
				d[j][i] = (1-alpha)*d[j-1][i] + alpha*d[j][i]
			}
		}
	}

	h := d[p]
	if h[3] == 0 {
		return math.Vec3{X: h[0], Y: h[1], Z: h[2]}
	}
	return math.Vec3{X: h[0] / h[3], Y: h[1] / h[3], Z: h[2] / h[3]}
}

// Sample returns n evenly spaced points across the domain.
func (c *Nurbs) Sample(n int) []math.Vec3 {
	if n < 2 {
		n = 2
	}
	lo, hi := c.Domain()
	out := make([]math.Vec3, n)
	for i := range out {
		u := lo + (hi-lo)*float32(i)/float32(n-1)
		out[i] = c.Point(u)
	}
	return out
}
