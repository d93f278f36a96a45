package spline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/midgard-spline/pkg/math"
)

func TestNearestToPoint(t *testing.T) {
	s := line(t, math.Right, 10)

	tests := []struct {
		name       string
		query      math.Vec3
		res, iters int
		wantT      float32
		wantDist   float32
	}{
		{"above middle", math.Vec3{X: 5, Y: 3}, 16, 5, 0.5, 3},
		{"odd resolution tie", math.Vec3{X: 5, Y: 3}, 11, 5, 0.5, 3},
		{"before start", math.Vec3{X: -4, Y: 3}, 8, 3, 0, 5},
		{"past end", math.Vec3{X: 13, Z: 4}, 8, 3, 1, 5},
		{"clamped arguments", math.Vec3{X: 2.5, Z: 1}, 1000, 0, 0.25, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.NearestToPoint(tt.query, tt.res, tt.iters)
			assert.InDelta(t, tt.wantT, got.T, 1e-3)
			assert.InDelta(t, tt.wantDist, got.Distance, 1e-3)
			assertVec(t, s.GetPoint(got.T), got.Point, 1e-5)
		})
	}
}

func TestNearestToPointOnCurve(t *testing.T) {
	s := bend(t)
	for _, tt := range []float32{0.1, 0.37, 0.5, 0.81} {
		on := s.GetPoint(tt)
		got := s.NearestToPoint(on, 32, 8)
		assert.InDelta(t, 0, got.Distance, 5e-2, "t=%v", tt)
		assertVec(t, on, got.Point, 5e-2, "t=%v", tt)
	}
}

func TestNearestToRay(t *testing.T) {
	s := line(t, math.Right, 10)

	// Straight down onto x=3
	r := math.NewRay(math.Vec3{X: 3, Y: 10}, math.Down)
	got := s.NearestToRay(r, 16, 6)
	assert.InDelta(t, 0.3, got.T, 1e-3)
	assert.InDelta(t, 0, got.Distance, 1e-3)
	assertVec(t, math.Vec3{X: 3}, got.Point, 1e-2)

	// Passing above along Z at height 2
	r = math.NewRay(math.Vec3{X: 7, Y: 2, Z: -5}, math.Forward)
	got = s.NearestToRay(r, 16, 6)
	assert.InDelta(t, 0.7, got.T, 1e-3)
	assert.InDelta(t, 2, got.Distance, 1e-3)
}
