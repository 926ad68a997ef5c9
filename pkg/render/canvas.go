// Package render provides the lumen software rasterization pipeline: the
// canvas it draws into, texture sampling, the shading program and the
// triangle rasterizer.
package render

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/taigrr/lumen/pkg/math3d"
)

// DepthFar is the depth every canvas cell holds after Clear. Larger depth
// values are nearer to the viewer, so any rasterized fragment beats it.
const DepthFar float32 = -9e9

// Canvas is a color buffer paired with a depth buffer of the same size.
// Pix is laid out like image.RGBA.Pix (4 bytes per pixel, row-major).
type Canvas struct {
	Width  int
	Height int
	Pix    []byte    // RGBA, stride 4*Width
	Depth  []float32 // one depth value per pixel, row-major
}

// NewCanvas creates a cleared canvas with the given dimensions.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{}
	c.Init(width, height)
	return c
}

// Init (re)allocates both buffers for a new size and clears them.
// Color and depth storage are always resized together.
func (c *Canvas) Init(width, height int) {
	width = max(width, 0)
	height = max(height, 0)
	c.Width = width
	c.Height = height
	c.Pix = make([]byte, 4*width*height)
	c.Depth = make([]float32, width*height)
	c.Clear()
}

// Clear resets every color to opaque black and every depth to DepthFar.
func (c *Canvas) Clear() {
	// Use copy-doubling for faster clearing
	if n := len(c.Pix); n > 0 {
		c.Pix[0], c.Pix[1], c.Pix[2], c.Pix[3] = 0, 0, 0, 255
		for i := 4; i < n; i *= 2 {
			copy(c.Pix[i:], c.Pix[:i])
		}
	}
	if n := len(c.Depth); n > 0 {
		c.Depth[0] = DepthFar
		for i := 1; i < n; i *= 2 {
			copy(c.Depth[i:], c.Depth[:i])
		}
	}
}

// Pixel writes color col at (x, y) if depth is strictly greater than the
// stored depth. Out-of-bounds coordinates are ignored. It reports whether
// the write happened.
func (c *Canvas) Pixel(x, y int, col Color, depth float32) bool {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return false
	}
	i := y*c.Width + x
	if depth <= c.Depth[i] {
		return false
	}
	c.Depth[i] = depth
	p := c.Pix[4*i : 4*i+4 : 4*i+4]
	p[0], p[1], p[2], p[3] = col.R, col.G, col.B, 255
	return true
}

// At returns the color at (x, y).
// Returns transparent black if out of bounds.
func (c *Canvas) At(x, y int) Color {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return Color{}
	}
	p := c.Pix[4*(y*c.Width+x):]
	return Color{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// DepthAt returns the stored depth at (x, y), or DepthFar out of bounds.
func (c *Canvas) DepthAt(x, y int) float32 {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return DepthFar
	}
	return c.Depth[y*c.Width+x]
}

// Image returns an image.RGBA view sharing the canvas color storage.
func (c *Canvas) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    c.Pix,
		Stride: 4 * c.Width,
		Rect:   image.Rect(0, 0, c.Width, c.Height),
	}
}

// SavePNG saves the canvas as a PNG file.
func (c *Canvas) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, c.Image()); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

// ToColor converts a linear [0,1] color to bytes, clamping each channel.
func ToColor(v math3d.Vec3) Color {
	return RGB(toByte(v.X), toByte(v.Y), toByte(v.Z))
}

func toByte(f float32) uint8 {
	// NaN compares false everywhere and falls through to 0
	n := f * 255
	switch {
	case n >= 255:
		return 255
	case n > 0:
		return uint8(n)
	default:
		return 0
	}
}

// FromColor converts a byte color to linear [0,1] components.
func FromColor(c Color) math3d.Vec3 {
	return math3d.V3(float32(c.R), float32(c.G), float32(c.B)).Div(255)
}

// clampInt restricts v to [lo, hi].
func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
