package math3d

import (
	"math"
	"testing"
)

func TestMat3MulRowMatchesTransposedMulVec(t *testing.T) {
	m := RotationZ(0.4).Mul(RotationY(-0.2)).Mul(RotationX(1.1))
	v := V3(0.3, -1.2, 2.5)

	row := m.MulRow(v)
	col := m.Transpose().MulVec(v)

	if math.Abs(row.X-col.X) > 1e-12 || math.Abs(row.Y-col.Y) > 1e-12 || math.Abs(row.Z-col.Z) > 1e-12 {
		t.Errorf("v·M = %v, Mᵀ·v = %v", row, col)
	}
}

func TestElementalRotations(t *testing.T) {
	tests := []struct {
		name string
		m    Mat3
		in   Vec3
		want Vec3
	}{
		{"x quarter turn", RotationX(math.Pi / 2), V3(0, 1, 0), V3(0, 0, 1)},
		{"y quarter turn", RotationY(math.Pi / 2), V3(0, 0, 1), V3(1, 0, 0)},
		{"z quarter turn", RotationZ(math.Pi / 2), V3(1, 0, 0), V3(0, 1, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.m.MulVec(tc.in)
			if got.Sub(tc.want).Len() > 1e-12 {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalizeZero(t *testing.T) {
	n := Zero3().Normalize()
	if n != (Vec3{}) {
		t.Errorf("Normalize(0) = %v, want zero vector", n)
	}
	if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) {
		t.Error("Normalize(0) produced NaN")
	}
}

func TestMean(t *testing.T) {
	got := Mean([]Vec3{V3(1, 0, 0), V3(-1, 2, 0), V3(0, 1, 3)})
	want := V3(0, 1, 1)
	if got.Sub(want).Len() > 1e-12 {
		t.Errorf("Mean = %v, want %v", got, want)
	}
	if Mean(nil) != (Vec3{}) {
		t.Error("Mean(nil) should be zero")
	}
}

func TestLookAtMapsEyeToOrigin(t *testing.T) {
	eye := V3(0, 0, 10)
	view := LookAt(eye, Zero3(), Up())
	p := view.MulVec4(V4FromV3(eye, 1))
	if math.Abs(p.X) > 1e-12 || math.Abs(p.Y) > 1e-12 || math.Abs(p.Z) > 1e-12 {
		t.Errorf("eye in view space = %v, want origin", p)
	}

	origin := view.MulVec4(V4(0, 0, 0, 1))
	if math.Abs(origin.Z+10) > 1e-12 {
		t.Errorf("origin view depth = %v, want -10", origin.Z)
	}
}
