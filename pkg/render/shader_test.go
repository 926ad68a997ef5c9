package render

import (
	"math"
	"testing"

	"github.com/taigrr/lumen/pkg/math3d"
)

// testVaryings returns a triangle with a non-degenerate texture mapping
// and the same normal at every corner.
func testVaryings(n math3d.Vec3) Varyings {
	return Varyings{
		{Position: math3d.V3(0, 0, 0), Normal: n, TexCoord: math3d.V2(0.1, 0.1)},
		{Position: math3d.V3(2, 0, 0.5), Normal: n, TexCoord: math3d.V2(0.9, 0.2)},
		{Position: math3d.V3(0, 1.5, -0.3), Normal: n, TexCoord: math3d.V2(0.3, 0.8)},
	}
}

func TestVertexStage(t *testing.T) {
	p := NewProgram(nil, nil, nil)
	ctx := &Context{
		Projection: math3d.Viewport(100, 100).Mul(math3d.Perspective(0.3)),
		ModelView:  math3d.Translate(math3d.V3(0, -1.8, -8)).Mul(math3d.RotateY(math.Pi / 2)),
	}
	pos := math3d.V3(0.5, 1, -0.25)
	normal := math3d.V3(1, 0, 0)
	uv := math3d.V2(0.25, 0.75)

	var out Varying
	clip := p.Vertex(ctx, pos, normal, uv, &out)

	if out.Position != pos {
		t.Errorf("Position = %v, want untransformed %v", out.Position, pos)
	}
	if out.TexCoord != uv {
		t.Errorf("TexCoord = %v, want %v", out.TexCoord, uv)
	}
	// RotateY(pi/2) turns +X onto -Z; translation must not apply
	if !approxVec3(out.Normal, math3d.V3(0, 0, -1), 1e-5) {
		t.Errorf("Normal = %v, want (0, 0, -1)", out.Normal)
	}

	want := ctx.Projection.Mul(ctx.ModelView).MulVec4(math3d.V4FromV3(pos, 1))
	if !approx(clip.X, want.X, 1e-3) || !approx(clip.Y, want.Y, 1e-3) ||
		!approx(clip.Z, want.Z, 1e-3) || !approx(clip.W, want.W, 1e-5) {
		t.Errorf("clip = %v, want %v", clip, want)
	}
}

func TestVaryingsInterpolate(t *testing.T) {
	v := Varyings{
		{Normal: math3d.V3(1, 0, 0), TexCoord: math3d.V2(0, 0)},
		{Normal: math3d.V3(0, 1, 0), TexCoord: math3d.V2(1, 0)},
		{Normal: math3d.V3(0, 0, 1), TexCoord: math3d.V2(0, 1)},
	}

	for k := range 3 {
		var bar math3d.Vec3
		switch k {
		case 0:
			bar.X = 1
		case 1:
			bar.Y = 1
		case 2:
			bar.Z = 1
		}
		if got := v.TexCoord(bar); got != v[k].TexCoord {
			t.Errorf("TexCoord(%v) = %v, want %v", bar, got, v[k].TexCoord)
		}
		if got := v.Normal(bar); got != v[k].Normal {
			t.Errorf("Normal(%v) = %v, want %v", bar, got, v[k].Normal)
		}
	}

	mid := v.TexCoord(math3d.V3(0, 0.5, 0.5))
	if !approx(mid.X, 0.5, 1e-6) || !approx(mid.Y, 0.5, 1e-6) {
		t.Errorf("TexCoord midpoint = %v, want (0.5, 0.5)", mid)
	}
}

func TestPerturbNormalIdentity(t *testing.T) {
	normals := []math3d.Vec3{
		math3d.V3(0, 0, 1),
		math3d.V3(0.3, 0.5, 0.8).Normalize(),
		math3d.V3(-0.7, 0.1, 0.2).Normalize(),
	}
	samples := map[string]struct {
		sample math3d.Vec3
		tol    float32
	}{
		"exact": {math3d.V3(0.5, 0.5, 1), 0.005},
		"8-bit": {FromColor(RGB(128, 128, 255)), 0.02},
	}

	for name, tc := range samples {
		for _, n := range normals {
			vary := testVaryings(n)
			tn, bn := tangentBasis(&vary, n)
			got := perturbNormal(tn, bn, n, tc.sample)
			if !approxVec3(got, n, tc.tol) {
				t.Errorf("%s: perturbNormal(flat) = %v, want %v", name, got, n)
			}
		}
	}
}

func TestTangentBasis(t *testing.T) {
	n := math3d.V3(0, 0, 1)
	// u grows along +X, v along +Y
	vary := Varyings{
		{Position: math3d.V3(0, 0, 0), TexCoord: math3d.V2(0, 0)},
		{Position: math3d.V3(1, 0, 0), TexCoord: math3d.V2(1, 0)},
		{Position: math3d.V3(0, 1, 0), TexCoord: math3d.V2(0, 1)},
	}

	tn, bn := tangentBasis(&vary, n)
	if !approxVec3(tn, math3d.V3(1, 0, 0), 0.01) {
		t.Errorf("tangent = %v, want +X", tn)
	}
	// Stored v grows along +Y, so the file's v (the map's green axis) is -Y
	if !approxVec3(bn, math3d.V3(0, -1, 0), 0.01) {
		t.Errorf("bitangent = %v, want -Y", bn)
	}

	tests := []struct {
		name   string
		sample math3d.Vec3
		want   math3d.Vec3
	}{
		{"red tilts along u", math3d.V3(1, 0.5, 0.5), math3d.V3(1, 0, 0)},
		{"green tilts against stored v", math3d.V3(0.5, 1, 0.5), math3d.V3(0, -1, 0)},
		{"green low tilts along stored v", math3d.V3(0.5, 0, 0.5), math3d.V3(0, 1, 0)},
		{"blue keeps the normal", math3d.V3(0.5, 0.5, 1), n},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := perturbNormal(tn, bn, n, tt.sample)
			if !approxVec3(got, tt.want, 0.01) {
				t.Errorf("perturbNormal(%v) = %v, want %v", tt.sample, got, tt.want)
			}
		})
	}
}

func TestFragmentNormalMapFlat(t *testing.T) {
	n := math3d.V3(0.2, 0.4, 0.9).Normalize()
	vary := testVaryings(n)
	bar := math3d.V3(0.2, 0.5, 0.3)

	flat := solidTexture(4, 4, RGB(128, 128, 255))
	mapped := NewProgram(nil, nil, flat)
	plain := NewProgram(nil, nil, nil)

	got, ok := mapped.Fragment(&vary, bar)
	if !ok {
		t.Fatal("Fragment discarded")
	}
	want, _ := plain.Fragment(&vary, bar)
	if !approxVec3(got, want, 0.01) {
		t.Errorf("flat normal map changed shading: %v, want %v", got, want)
	}
}

func TestFragmentDiffuse(t *testing.T) {
	n := math3d.V3(0, 0, 1)
	vary := testVaryings(n)
	bar := math3d.V3(1.0/3, 1.0/3, 1.0/3)
	red := solidTexture(2, 2, RGB(255, 0, 0))

	p := NewProgram(red, nil, nil)
	nf := n.NormalizeFast()
	diff := max(0, nf.Dot(p.Light()))*0.9 + 0.1

	tests := []struct {
		name   string
		toggle string
		want   math3d.Vec3
	}{
		{"diffuse map", "", math3d.V3(diff, 0, 0)},
		{"fallback", "d", FallbackColor.Scale(diff)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProgram(red, nil, nil)
			if tc.toggle != "" {
				p.Options.Toggle(tc.toggle)
			}
			got, _ := p.Fragment(&vary, bar)
			if !approxVec3(got, tc.want, 1e-4) {
				t.Errorf("Fragment = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFragmentBackLit(t *testing.T) {
	// Facing away from the light leaves only the ambient term
	vary := testVaryings(math3d.V3(0, 0, -1))
	p := NewProgram(nil, nil, nil)
	got, _ := p.Fragment(&vary, math3d.V3(0.3, 0.3, 0.4))
	if want := FallbackColor.Scale(0.1); !approxVec3(got, want, 1e-5) {
		t.Errorf("Fragment = %v, want ambient %v", got, want)
	}
}

func TestFragmentSpecularExponent(t *testing.T) {
	p := NewProgram(nil, solidTexture(1, 1, RGB(255, 255, 255)), nil)
	p.Options.DiffuseMapping = false

	// Half-way between the light and the view axis reflects the light
	// almost straight at the viewer
	n := p.Light().Add(math3d.V3(0, 0, 1)).Normalize()
	vary := testVaryings(n)
	bar := math3d.V3(0.25, 0.25, 0.5)

	got, _ := p.Fragment(&vary, bar)

	nf := n.NormalizeFast()
	ndl := nf.Dot(p.Light())
	diff := max(0, ndl)*0.9 + 0.1
	refl := nf.Scale(2 * ndl).Sub(p.Light())
	highlight := float32(math.Pow(float64(max(refl.Z, 0)), 64))
	want := FallbackColor.Scale(diff).Add(math3d.V3(highlight, highlight, highlight))

	if !approxVec3(got, want, 1e-3) {
		t.Errorf("Fragment = %v, want %v (highlight %v)", got, want, highlight)
	}
	if highlight < 0.5 {
		t.Errorf("specular term %v unexpectedly small", highlight)
	}
}

func TestOptionsToggle(t *testing.T) {
	o := DefaultOptions()
	for _, key := range []string{"n", "d", "s", "f"} {
		if !o.Toggle(key) {
			t.Errorf("Toggle(%q) not recognized", key)
		}
	}
	want := Options{Filter: FilterNearest}
	if o != want {
		t.Errorf("after toggling all: %+v, want %+v", o, want)
	}
	if o.Toggle("x") {
		t.Error("Toggle(\"x\") should not be recognized")
	}
	o.Toggle("F")
	if o.Filter != FilterBilinear {
		t.Errorf("Filter = %v, want bilinear", o.Filter)
	}
}

func TestLightIsNormalized(t *testing.T) {
	p := NewProgram(nil, nil, nil)
	if l := p.Light(); !approx(l.Len(), 1, 1e-6) || !approx(l.Z, 0.87287, 1e-4) {
		t.Errorf("Light() = %v", l)
	}
}
