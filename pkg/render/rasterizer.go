package render

import (
	"github.com/chewxy/math32"

	"github.com/taigrr/lumen/pkg/math3d"
)

// DegenerateEpsilon is the smallest screen-space area determinant a
// triangle may have and still be rasterized.
const DegenerateEpsilon = 0.01

// FragmentShader computes the color of one covered pixel. Returning false
// discards the fragment.
type FragmentShader interface {
	Fragment(v *Varyings, bar math3d.Vec3) (math3d.Vec3, bool)
}

// Shader is a full program: a vertex stage feeding a fragment stage.
type Shader interface {
	FragmentShader
	Vertex(ctx *Context, pos, normal math3d.Vec3, uv math3d.Vec2, out *Varying) math3d.Vec4
}

// MeshRenderer is implemented by models.Mesh.
// This interface allows drawing meshes without importing the models package.
type MeshRenderer interface {
	TriangleCount() int
	// GetCorner returns the attributes of corner k (0..2) of triangle tri.
	GetCorner(tri, k int) (pos, normal math3d.Vec3, uv math3d.Vec2)
}

// Stats counts what the rasterizer did since the last ResetStats.
type Stats struct {
	Triangles  int // triangles submitted
	Culled     int // back-facing triangles dropped
	Offscreen  int // triangles whose bounds miss the canvas
	Degenerate int // triangles with a near-zero screen area
	Fragments  int // covered pixels shaded
	Written    int // fragments that passed the depth test
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Triangles += o.Triangles
	s.Culled += o.Culled
	s.Offscreen += o.Offscreen
	s.Degenerate += o.Degenerate
	s.Fragments += o.Fragments
	s.Written += o.Written
}

// Rasterizer scan-converts screen-space triangles into a Canvas.
type Rasterizer struct {
	canvas *Canvas
	Stats  Stats
}

// NewRasterizer creates a rasterizer drawing into c.
func NewRasterizer(c *Canvas) *Rasterizer {
	return &Rasterizer{canvas: c}
}

// ResetStats resets the statistics (call once per frame).
func (r *Rasterizer) ResetStats() {
	r.Stats = Stats{}
}

// DrawMesh runs the vertex stage over every triangle of mesh and
// rasterizes the result.
func (r *Rasterizer) DrawMesh(mesh MeshRenderer, sh Shader, ctx *Context) {
	for i := range mesh.TriangleCount() {
		var vary Varyings
		var clip [3]math3d.Vec4
		for k := range 3 {
			pos, normal, uv := mesh.GetCorner(i, k)
			clip[k] = sh.Vertex(ctx, pos, normal, uv, &vary[k])
		}
		r.DrawTriangle(sh, &vary, clip[0], clip[1], clip[2])
	}
}

// DrawTriangle rasterizes one triangle given its vertices after projection
// (x and y in pixels once divided by w). Pixel centres sit on integer
// coordinates. Triangles that appear clockwise on screen, or have zero
// signed area, are back-facing and dropped.
func (r *Rasterizer) DrawTriangle(sh FragmentShader, vary *Varyings, v0, v1, v2 math3d.Vec4) {
	r.Stats.Triangles++

	oow := math3d.V3(1/v0.W, 1/v1.W, 1/v2.W)
	f0 := v0.XY().Scale(oow.X)
	f1 := v1.XY().Scale(oow.Y)
	f2 := v2.XY().Scale(oow.Z)

	e0 := f1.Sub(f0)
	e1 := f2.Sub(f0)
	if e0.Cross(e1) >= 0 {
		r.Stats.Culled++
		return
	}

	// Find bounding box
	minX := int(math32.Floor(min(f0.X, f1.X, f2.X)))
	maxX := int(math32.Ceil(max(f0.X, f1.X, f2.X)))
	minY := int(math32.Floor(min(f0.Y, f1.Y, f2.Y)))
	maxY := int(math32.Ceil(max(f0.Y, f1.Y, f2.Y)))

	c := r.canvas
	if maxX < 0 || minX > c.Width || maxY < 0 || minY > c.Height {
		r.Stats.Offscreen++
		return
	}
	minX, maxX = clampInt(minX, 0, c.Width), clampInt(maxX, 0, c.Width)
	minY, maxY = clampInt(minY, 0, c.Height), clampInt(maxY, 0, c.Height)

	tri, ok := setupTriangle(f0, f1, f2)
	if !ok {
		r.Stats.Degenerate++
		return
	}

	zs := math3d.V3(v0.Z, v1.Z, v2.Z)
	ws := math3d.V3(v0.W, v1.W, v2.W)

	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			bar := tri.weights(math3d.V2(float32(x), float32(y)))
			if bar.X < 0 || bar.Y < 0 || bar.Z < 0 {
				continue
			}
			bar = perspectiveCorrect(bar, oow)

			r.Stats.Fragments++
			col, keep := sh.Fragment(vary, bar)
			if !keep {
				continue
			}
			depth := zs.Dot(bar) / ws.Dot(bar)
			if c.Pixel(x, y, ToColor(col), depth) {
				r.Stats.Written++
			}
		}
	}
}

// triangleSetup holds the per-triangle terms of the dot-product
// barycentric solve.
type triangleSetup struct {
	f0, e0, e1    math3d.Vec2
	d00, d01, d11 float32
	inv           float32 // 1 / (d00*d11 - d01²)
}

// setupTriangle prepares the barycentric solve for screen triangle
// (f0, f1, f2). It reports false when the area determinant is below
// DegenerateEpsilon.
func setupTriangle(f0, f1, f2 math3d.Vec2) (triangleSetup, bool) {
	t := triangleSetup{f0: f0, e0: f1.Sub(f0), e1: f2.Sub(f0)}
	t.d00 = t.e0.Dot(t.e0)
	t.d01 = t.e0.Dot(t.e1)
	t.d11 = t.e1.Dot(t.e1)
	den := t.d00*t.d11 - t.d01*t.d01
	if math32.Abs(den) < DegenerateEpsilon {
		return t, false
	}
	t.inv = 1 / den
	return t, true
}

// weights returns the barycentric weights of p. They sum to 1 and at least
// one is negative when p lies outside the triangle.
func (t *triangleSetup) weights(p math3d.Vec2) math3d.Vec3 {
	q := p.Sub(t.f0)
	d20 := q.Dot(t.e0)
	d21 := q.Dot(t.e1)
	b1 := (t.d11*d20 - t.d01*d21) * t.inv
	b2 := (t.d00*d21 - t.d01*d20) * t.inv
	return math3d.V3(1-b1-b2, b1, b2)
}

// perspectiveCorrect converts screen-space weights to weights that
// interpolate linearly in eye space, given each vertex's 1/w.
func perspectiveCorrect(bar, oow math3d.Vec3) math3d.Vec3 {
	return bar.Mul(oow).Scale(1 / bar.Dot(oow))
}
