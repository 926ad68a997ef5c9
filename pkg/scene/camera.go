package scene

import (
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/render"
)

// Default camera placement: the model turns about the Y axis in front of
// an eye raised DefaultHeight above its origin.
const (
	DefaultDistance    = 8
	DefaultHeight      = 1.8
	DefaultAngle       = -1.4
	DefaultPerspective = 0.3
)

// Camera orbits the model origin. The eye sits Distance units down +Z and
// Height units up; Angle turns the model about Y.
type Camera struct {
	Distance    float32
	Height      float32
	Angle       float32 // radians
	Perspective float32 // strength k of the 1 - k*z divide

	width, height int

	// Cached matrices (computed on demand)
	modelView  math3d.Mat4
	projection math3d.Mat4
	viewDirty  bool
	projDirty  bool
}

// NewCamera creates a camera with the default placement for a width x
// height canvas.
func NewCamera(width, height int) *Camera {
	return &Camera{
		Distance:    DefaultDistance,
		Height:      DefaultHeight,
		Angle:       DefaultAngle,
		Perspective: DefaultPerspective,
		width:       width,
		height:      height,
		viewDirty:   true,
		projDirty:   true,
	}
}

// SetViewport sets the canvas size the projection maps onto.
func (c *Camera) SetViewport(width, height int) {
	c.width, c.height = width, height
	c.projDirty = true
}

// Viewport returns the canvas size.
func (c *Camera) Viewport() (width, height int) {
	return c.width, c.height
}

// SetPlacement sets the eye distance and height.
func (c *Camera) SetPlacement(distance, height float32) {
	c.Distance = distance
	c.Height = height
	c.viewDirty = true
}

// SetAngle sets the model rotation about Y.
func (c *Camera) SetAngle(angle float32) {
	c.Angle = angle
	c.viewDirty = true
}

// Rotate adds delta radians to the model rotation.
func (c *Camera) Rotate(delta float32) {
	c.Angle += delta
	c.viewDirty = true
}

// SetPerspective sets the perspective strength.
func (c *Camera) SetPerspective(k float32) {
	c.Perspective = k
	c.projDirty = true
}

// ModelView returns Translate(0, -Height, -Distance) * RotateY(Angle).
func (c *Camera) ModelView() math3d.Mat4 {
	if c.viewDirty {
		c.modelView = math3d.Translate(math3d.V3(0, -c.Height, -c.Distance)).
			Mul(math3d.RotateY(c.Angle))
		c.viewDirty = false
	}
	return c.modelView
}

// Projection returns Viewport(width, height) * Perspective(k).
func (c *Camera) Projection() math3d.Mat4 {
	if c.projDirty {
		c.projection = math3d.Viewport(c.width, c.height).Mul(math3d.Perspective(c.Perspective))
		c.projDirty = false
	}
	return c.projection
}

// Context returns the render context for a pass with the given model
// transform applied before the camera.
func (c *Camera) Context(model math3d.Mat4) render.Context {
	return render.Context{
		Projection: c.Projection(),
		ModelView:  c.ModelView().Mul(model),
	}
}
