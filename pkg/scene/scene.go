// Package scene assembles a mesh, a shading program and an orbiting camera
// into frames rendered on a Canvas.
package scene

import (
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
	"github.com/taigrr/lumen/pkg/render"
)

// Scene owns everything needed to render one frame.
type Scene struct {
	Canvas     *render.Canvas
	Rasterizer *render.Rasterizer
	Program    *render.Program
	Mesh       *models.Mesh
	Camera     *Camera
	Spin       *Spin

	model math3d.Mat4
}

// New creates a width x height scene drawing mesh with prog. The model is
// used as authored until AutoFrame is called.
func New(width, height int, mesh *models.Mesh, prog *render.Program) *Scene {
	c := render.NewCanvas(width, height)
	return &Scene{
		Canvas:     c,
		Rasterizer: render.NewRasterizer(c),
		Program:    prog,
		Mesh:       mesh,
		Camera:     NewCamera(width, height),
		Spin:       NewSpin(60, DefaultSpin),
		model:      math3d.Identity(),
	}
}

// AutoFrame fits the mesh to the camera: its largest dimension becomes
// twice the eye height and its bounding box centre moves to eye level on
// the rotation axis.
func (s *Scene) AutoFrame() {
	size := s.Mesh.Size().MaxComponent()
	if size <= 0 {
		s.model = math3d.Identity()
		return
	}
	h := s.Camera.Height
	s.model = math3d.Translate(math3d.V3(0, h, 0)).
		Mul(math3d.ScaleUniform(2 * h / size)).
		Mul(math3d.Translate(s.Mesh.Center().Negate()))
}

// Model returns the transform applied to the mesh before the camera.
func (s *Scene) Model() math3d.Mat4 {
	return s.model
}

// Resize reallocates the canvas and updates the projection.
func (s *Scene) Resize(width, height int) {
	s.Canvas.Init(width, height)
	s.Camera.SetViewport(width, height)
}

// Advance turns the model by one frame of spin.
func (s *Scene) Advance() {
	s.Camera.Rotate(s.Spin.Step())
}

// Render clears the canvas and draws the mesh. It returns the rasterizer
// statistics for the frame.
func (s *Scene) Render() render.Stats {
	s.Canvas.Clear()
	s.Rasterizer.ResetStats()
	ctx := s.Camera.Context(s.model)
	s.Rasterizer.DrawMesh(s.Mesh, s.Program, &ctx)
	return s.Rasterizer.Stats
}
