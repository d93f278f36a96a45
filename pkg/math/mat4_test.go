package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	result := m.TransformPoint(Vec3{1, 2, 3})

	expected := Vec3{11, 22, 33}
	if result != expected {
		t.Errorf("TransformPoint: got %v, want %v", result, expected)
	}
}

func TestTransformPointScale(t *testing.T) {
	m := Scale(2, 2, 2)
	result := m.TransformPoint(Vec3{1, 2, 3})

	expected := Vec3{2, 4, 6}
	if result != expected {
		t.Errorf("TransformPoint with scale: got %v, want %v", result, expected)
	}
}

func TestTRS(t *testing.T) {
	rot := QuatFromAxisAngle(Up, float32(math.Pi/2))
	m := TRS(Vec3{1, 2, 3}, rot, Vec3{2, 2, 2})

	got := m.TransformPoint(Vec3{0, 0, 1})
	want := Vec3{1, 2, 3}.Add(rot.Rotate(Vec3{0, 0, 2}))
	if !got.ApproxEqual(want, 1e-4) {
		t.Errorf("TRS point: got %v, want %v", got, want)
	}

	inv := m.Inverse()
	back := inv.TransformPoint(got)
	if !back.ApproxEqual(Vec3{0, 0, 1}, 1e-4) {
		t.Errorf("Inverse round trip: got %v", back)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
