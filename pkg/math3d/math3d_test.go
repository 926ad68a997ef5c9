package math3d

import (
	"math"
	"testing"
)

const eps = 1e-5

func approx(a, b, tol float32) bool {
	return math.Abs(float64(a-b)) <= float64(tol)
}

func TestFastInvSqrt(t *testing.T) {
	inputs := []float32{1e-4, 0.01, 0.25, 0.5, 1, 2, 3, 5.25, 10, 100, 12345, 1e6}

	for _, x := range inputs {
		got := float64(FastInvSqrt(x))
		want := 1 / math.Sqrt(float64(x))
		if rel := math.Abs(got-want) / want; rel > 0.002 {
			t.Errorf("FastInvSqrt(%v) = %v, want %v (relative error %.5f)", x, got, want, rel)
		}
	}
}

func TestVec3NormalizeFast(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
	}{
		{"axis", V3(0, 0, 3)},
		{"diagonal", V3(1, 1, 1)},
		{"light", V3(0.5, 1, 2)},
		{"small", V3(1e-3, -2e-3, 5e-4)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := tc.v.NormalizeFast()
			if !approx(n.Len(), 1, 0.002) {
				t.Errorf("len(NormalizeFast(%v)) = %v, want ~1", tc.v, n.Len())
			}
			exact := tc.v.Normalize()
			if !approx(n.Dot(exact), n.Len(), 1e-4) {
				t.Errorf("NormalizeFast(%v) = %v changed direction, exact %v", tc.v, n, exact)
			}
		})
	}

	if got := (Vec3{}).NormalizeFast(); got != (Vec3{}) {
		t.Errorf("NormalizeFast(0) = %v, want zero", got)
	}
}

func TestVec2Cross(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec2
		want float32
	}{
		{"counter-clockwise", V2(1, 0), V2(0, 1), 1},
		{"clockwise", V2(0, 1), V2(1, 0), -1},
		{"parallel", V2(2, 2), V2(4, 4), 0},
		{"scaled", V2(32, 0), V2(0, -32), -1024},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Cross(tc.b); got != tc.want {
				t.Errorf("%v.Cross(%v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestVec3Cross(t *testing.T) {
	x, y := V3(1, 0, 0), V3(0, 1, 0)
	if got := x.Cross(y); got != V3(0, 0, 1) {
		t.Errorf("x.Cross(y) = %v, want (0, 0, 1)", got)
	}
	if got := y.Cross(x); got != V3(0, 0, -1) {
		t.Errorf("y.Cross(x) = %v, want (0, 0, -1)", got)
	}
}

func TestMat4GetSet(t *testing.T) {
	var m Mat4
	m.Set(3, 2, -0.3)
	if m.Get(3, 2) != -0.3 {
		t.Errorf("Get(3, 2) = %v, want -0.3", m.Get(3, 2))
	}
	if m[11] != -0.3 {
		t.Errorf("element (3, 2) stored at wrong index: %v", m)
	}
}

func TestMat4MulIdentity(t *testing.T) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.7))
	if got := Identity().Mul(m); got != m {
		t.Errorf("I*m = %v, want %v", got, m)
	}
	if got := m.Mul(Identity()); got != m {
		t.Errorf("m*I = %v, want %v", got, m)
	}
}

func TestRotateY(t *testing.T) {
	m := RotateY(math.Pi / 2)
	got := m.MulVec3Dir(V3(1, 0, 0))
	// Right-handed: +X rotates onto -Z
	if !approx(got.X, 0, eps) || !approx(got.Y, 0, eps) || !approx(got.Z, -1, eps) {
		t.Errorf("RotateY(pi/2) * X = %v, want (0, 0, -1)", got)
	}
}

func TestViewportPerspective(t *testing.T) {
	proj := Viewport(64, 64).Mul(Perspective(0.3))

	tests := []struct {
		name string
		in   Vec3
		want Vec4
	}{
		{"origin", V3(0, 0, 0), V4(32, 32, 127.5, 1)},
		{"right", V3(1, 0, 0), V4(64, 32, 127.5, 1)},
		{"up", V3(0, 1, 0), V4(32, 0, 127.5, 1)},
		{"behind", V3(0, 0, -1), V4(41.6, 41.6, 38.25, 1.3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := proj.MulVec4(V4FromV3(tc.in, 1))
			if !approx(got.X, tc.want.X, 1e-3) || !approx(got.Y, tc.want.Y, 1e-3) ||
				!approx(got.Z, tc.want.Z, 1e-3) || !approx(got.W, tc.want.W, 1e-5) {
				t.Errorf("proj * %v = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestMulVec3Translate(t *testing.T) {
	m := Translate(V3(0, -1.8, -8))
	got := m.MulVec3(V3(1, 1, 1))
	want := V3(1, -0.8, -7)
	if !approx(got.X, want.X, eps) || !approx(got.Y, want.Y, eps) || !approx(got.Z, want.Z, eps) {
		t.Errorf("Translate * p = %v, want %v", got, want)
	}
	if dir := m.MulVec3Dir(V3(1, 1, 1)); dir != V3(1, 1, 1) {
		t.Errorf("Translate must not move directions, got %v", dir)
	}
}
