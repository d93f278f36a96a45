package spline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/midgard-spline/pkg/math"
)

func TestFollowerOnce(t *testing.T) {
	f := NewFollower(line(t, math.Forward, 10), 2, FollowOnce)

	p := f.Update(1000)
	assert.InDelta(t, 2, f.Distance, 1e-4)
	assertVec(t, math.Vec3{Z: 2}, p.Position, 1e-3)
	assert.False(t, f.Finished)

	p = f.Update(10000)
	assert.True(t, f.Finished)
	assertVec(t, math.Vec3{Z: 10}, p.Position, 1e-3)

	// Finished followers stay put
	f.Update(1000)
	assert.InDelta(t, 10, f.Distance, 1e-3)
}

func TestFollowerLoop(t *testing.T) {
	f := NewFollower(line(t, math.Forward, 10), 4, FollowLoop)
	f.Update(3000)
	assert.InDelta(t, 2, f.Distance, 1e-3)
	assert.False(t, f.Finished)
}

func TestFollowerPingPong(t *testing.T) {
	f := NewFollower(line(t, math.Forward, 10), 2, FollowPingPong)
	p := f.Update(6000)
	assert.InDelta(t, 8, f.Distance, 1e-3)
	assert.True(t, f.Reverse)
	assertVec(t, math.Back, p.Forward, 1e-4)

	p = f.Update(5000)
	assert.InDelta(t, 2, f.Distance, 1e-3)
	assert.False(t, f.Reverse)
	assertVec(t, math.Forward, p.Forward, 1e-4)
}

func TestFollowerSurface(t *testing.T) {
	f := NewFollower(line(t, math.Forward, 10), 1, FollowOnce)
	f.Surface = flatGround{y: 3}
	f.MaxDistance = 10
	p := f.Update(500)
	assert.Equal(t, float32(3), p.Position.Y)
}

func TestConnectedAt(t *testing.T) {
	a := line(t, math.Forward, 3)
	b := line(t, math.Right, 3)
	b.SetTransform(Transform{Position: math.Vec3{Z: 3}, Rotation: math.QuatIdentity()})
	c := line(t, math.Up, 3)
	c.SetTransform(Transform{Position: math.Vec3{X: 50}, Rotation: math.QuatIdentity()})

	assert.Equal(t, Ends{End: true}, ConnectedAt(a, b, 1e-3))
	assert.Equal(t, Ends{Start: true}, ConnectedAt(b, a, 1e-3))
	assert.Equal(t, Ends{}, ConnectedAt(a, c, 1e-3))
	assert.Equal(t, Ends{}, ConnectedAt(a, a, 1e-3))
	assert.Equal(t, Ends{End: true}, Connections(a, []*Spline{a, b, c}, 1e-3))

	loop := bend(t)
	loop.SetLoop(true)
	assert.Equal(t, Ends{Start: true, End: true}, Connections(loop, nil, 1e-3))
}
