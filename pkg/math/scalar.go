package math

import "github.com/chewxy/math32"

// Angle conversion factors.
const (
	DegToRad = math32.Pi / 180
	RadToDeg = 180 / math32.Pi
)

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	return clamp(v, lo, hi)
}

// Clamp01 restricts v to [0, 1].
func Clamp01(v float32) float32 {
	return clamp(v, 0, 1)
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}

// InverseLerp returns where v lies between a and b, or 0 when a == b.
func InverseLerp(a, b, v float32) float32 {
	if a == b {
		return 0
	}
	return (v - a) / (b - a)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
