package render

import (
	"github.com/taigrr/lumen/pkg/math3d"
)

// Context carries the transforms for one draw pass. It is read-only while
// the pass runs.
type Context struct {
	Projection math3d.Mat4 // eye space to screen space (including viewport)
	ModelView  math3d.Mat4 // model space to eye space
}

// Varying holds the per-vertex values the vertex stage hands to the
// fragment stage.
type Varying struct {
	Position math3d.Vec3 // model-space position
	Normal   math3d.Vec3 // eye-space normal
	TexCoord math3d.Vec2
}

// Varyings holds the three corners of the triangle being rasterized. The
// caller owns it and refills it for every triangle.
type Varyings [3]Varying

// TexCoord interpolates the texture coordinates with barycentric weights.
func (v *Varyings) TexCoord(bar math3d.Vec3) math3d.Vec2 {
	return math3d.V2(
		v[0].TexCoord.X*bar.X+v[1].TexCoord.X*bar.Y+v[2].TexCoord.X*bar.Z,
		v[0].TexCoord.Y*bar.X+v[1].TexCoord.Y*bar.Y+v[2].TexCoord.Y*bar.Z,
	)
}

// Normal interpolates the normals with barycentric weights. The result is
// not normalized.
func (v *Varyings) Normal(bar math3d.Vec3) math3d.Vec3 {
	return v[0].Normal.Scale(bar.X).
		Add(v[1].Normal.Scale(bar.Y)).
		Add(v[2].Normal.Scale(bar.Z))
}

// Options are the shading toggles. They may be flipped between passes.
type Options struct {
	NormalMapping   bool
	DiffuseMapping  bool
	SpecularMapping bool
	Filter          FilterMode
}

// DefaultOptions enables every mapping with bilinear filtering.
func DefaultOptions() Options {
	return Options{
		NormalMapping:   true,
		DiffuseMapping:  true,
		SpecularMapping: true,
		Filter:          FilterBilinear,
	}
}

// Toggle flips the option bound to key: n (normal), d (diffuse),
// s (specular) or f (filter). It reports whether key was recognized.
func (o *Options) Toggle(key string) bool {
	switch key {
	case "n", "N":
		o.NormalMapping = !o.NormalMapping
	case "d", "D":
		o.DiffuseMapping = !o.DiffuseMapping
	case "s", "S":
		o.SpecularMapping = !o.SpecularMapping
	case "f", "F":
		if o.Filter == FilterBilinear {
			o.Filter = FilterNearest
		} else {
			o.Filter = FilterBilinear
		}
	default:
		return false
	}
	return true
}

var (
	// LightDir is the fixed direction towards the light, in eye space.
	LightDir = math3d.V3(0.5, 1, 2)

	// FallbackColor is the surface color used when diffuse mapping is off.
	FallbackColor = math3d.V3(0.4, 0.4, 0.6)
)

const (
	ambient       = 0.1
	diffuseWeight = 0.9

	// specularSquarings is how many times the clamped reflection term is
	// squared, giving an exponent of 2^6 = 64.
	specularSquarings = 6
)

// Program is the vertex and fragment stage pair. It lights surfaces from a
// single directional light and can read diffuse, specular and tangent-space
// normal maps. A nil texture disables its mapping.
type Program struct {
	Diffuse  *Texture
	Specular *Texture
	Normal   *Texture
	Options  Options

	light math3d.Vec3
}

// NewProgram creates a program using the given textures and DefaultOptions.
func NewProgram(diffuse, specular, normal *Texture) *Program {
	return &Program{
		Diffuse:  diffuse,
		Specular: specular,
		Normal:   normal,
		Options:  DefaultOptions(),
		light:    LightDir.Normalize(),
	}
}

// Light returns the normalized light direction.
func (p *Program) Light() math3d.Vec3 {
	return p.light
}

// Vertex records the untransformed position, the eye-space normal and the
// texture coordinates in out, and returns the clip position
// Projection * ModelView * (pos, 1).
func (p *Program) Vertex(ctx *Context, pos, normal math3d.Vec3, uv math3d.Vec2, out *Varying) math3d.Vec4 {
	out.Position = pos
	out.Normal = ctx.ModelView.MulVec3Dir(normal)
	out.TexCoord = uv
	return ctx.Projection.MulVec4(ctx.ModelView.MulVec4(math3d.V4FromV3(pos, 1)))
}

// Fragment shades one pixel from the triangle's varyings and perspective
// corrected barycentric weights. The color is in linear [0,1] units and may
// exceed 1 where specular is added; the returned bool is always true.
func (p *Program) Fragment(v *Varyings, bar math3d.Vec3) (math3d.Vec3, bool) {
	uv := v.TexCoord(bar)
	n := v.Normal(bar).NormalizeFast()

	if p.Options.NormalMapping && p.Normal != nil {
		t, b := tangentBasis(v, n)
		n = perturbNormal(t, b, n, p.Normal.Sample(uv, p.Options.Filter))
	}

	diff := max(0, n.Dot(p.light))*diffuseWeight + ambient

	var color math3d.Vec3
	if p.Options.DiffuseMapping && p.Diffuse != nil {
		color = p.Diffuse.Sample(uv, p.Options.Filter).Scale(diff)
	} else {
		color = FallbackColor.Scale(diff)
	}

	if p.Options.SpecularMapping && p.Specular != nil {
		refl := p.light.Negate().Reflect(n)
		highlight := max(refl.Z, 0)
		for range specularSquarings {
			highlight *= highlight
		}
		color = color.Add(p.Specular.Sample(uv, p.Options.Filter).Scale(highlight))
	}

	return color, true
}

// tangentBasis solves f1 = T*t1.u + B*t1.v, f2 = T*t2.u + B*t2.v for the
// tangent T (the direction of increasing u) and returns it with the
// bitangent T × n. Texture v is stored flipped, so the bitangent points
// along increasing v of the source file, the green axis of the maps.
// A triangle whose texture coordinates are collinear has no tangent; the
// division is left unguarded and yields non-finite values.
func tangentBasis(v *Varyings, n math3d.Vec3) (t, b math3d.Vec3) {
	f1 := v[1].Position.Sub(v[0].Position)
	f2 := v[2].Position.Sub(v[0].Position)
	t1 := v[1].TexCoord.Sub(v[0].TexCoord)
	t2 := v[2].TexCoord.Sub(v[0].TexCoord)

	coef := 1 / t1.Cross(t2)
	t = f1.Scale(t2.Y).Sub(f2.Scale(t1.Y)).Scale(coef).NormalizeFast()
	b = t.Cross(n)
	return t, b
}

// perturbNormal decodes a normal map sample from [0,1] to [-1,1] and
// expresses it in the (t, b, n) basis.
func perturbNormal(t, b, n, sample math3d.Vec3) math3d.Vec3 {
	m := sample.Scale(2).Sub(math3d.V3(1, 1, 1))
	return t.Scale(m.X).Add(b.Scale(m.Y)).Add(n.Scale(m.Z)).NormalizeFast()
}
