package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"

	"github.com/taigrr/lumen/pkg/math3d"
)

// WrapMode determines how texel indices outside the texture are handled.
type WrapMode int

const (
	WrapClamp  WrapMode = iota // Clamp to edge
	WrapRepeat                 // Tile the texture
)

// FilterMode determines how texture sampling is performed.
type FilterMode int

const (
	FilterNearest  FilterMode = iota // Nearest-neighbor (pixelated)
	FilterBilinear                   // Bilinear interpolation (smooth)
)

// String returns the filter name.
func (f FilterMode) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterBilinear:
		return "bilinear"
	default:
		return fmt.Sprintf("FilterMode(%d)", int(f))
	}
}

// ParseFilterMode converts "nearest" or "bilinear" to a FilterMode.
func ParseFilterMode(s string) (FilterMode, error) {
	switch s {
	case "nearest":
		return FilterNearest, nil
	case "bilinear", "":
		return FilterBilinear, nil
	default:
		return 0, fmt.Errorf("unknown filter %q", s)
	}
}

// Texture is a grid of 8-bit RGB texels addressed by normalized
// coordinates with (0, 0) at the top-left texel.
type Texture struct {
	Width  int
	Height int
	Stride int    // bytes between the starts of consecutive rows
	Pix    []byte // R, G, B per texel
	Wrap   WrapMode
}

// NewTexture creates a black texture with the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Stride: 3 * width,
		Pix:    make([]byte, 3*width*height),
	}
}

// LoadTexture loads a PNG, JPEG or TGA texture.
func LoadTexture(path string) (*Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}

	img, err := DecodeImage(data, path)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", path, err)
	}
	return TextureFromImage(img), nil
}

// ErrUnknownImage is returned by DecodeImage for data it cannot identify.
var ErrUnknownImage = errors.New("unknown image format")

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xff, 0xd8}
)

// DecodeImage decodes PNG or JPEG data by signature. TGA has no signature
// and is recognized by the .tga extension of name.
func DecodeImage(data []byte, name string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return png.Decode(r)
	case bytes.HasPrefix(data, jpegMagic):
		return jpeg.Decode(r)
	case strings.EqualFold(filepath.Ext(name), ".tga"):
		return tga.Decode(r)
	default:
		return nil, ErrUnknownImage
	}
}

// TextureFromImage creates a texture from an image.Image.
func TextureFromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	tex := NewTexture(bounds.Dx(), bounds.Dy())

	for y := range tex.Height {
		for x := range tex.Width {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA returns 16-bit values, scale to 8-bit
			tex.SetPixel(x, y, RGB(uint8(r>>8), uint8(g>>8), uint8(b>>8)))
		}
	}
	return tex
}

// SetPixel sets a texel. Out-of-bounds writes are ignored.
func (t *Texture) SetPixel(x, y int, c Color) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	p := t.Pix[y*t.Stride+3*x:]
	p[0], p[1], p[2] = c.R, c.G, c.B
}

// At returns the texel at integer coordinates as a [0,1] color, applying
// the wrap mode to out-of-range indices.
func (t *Texture) At(x, y int) math3d.Vec3 {
	if t.Width == 0 || t.Height == 0 {
		return math3d.Vec3{}
	}
	x = t.wrapIndex(x, t.Width)
	y = t.wrapIndex(y, t.Height)
	p := t.Pix[y*t.Stride+3*x:]
	return FromColor(RGB(p[0], p[1], p[2]))
}

// Sample samples the texture at normalized coordinates.
func (t *Texture) Sample(uv math3d.Vec2, filter FilterMode) math3d.Vec3 {
	if filter == FilterBilinear {
		return t.sampleBilinear(uv)
	}
	return t.sampleNearest(uv)
}

// sampleNearest returns the texel containing uv.
func (t *Texture) sampleNearest(uv math3d.Vec2) math3d.Vec3 {
	return t.At(int(uv.X*float32(t.Width)), int(uv.Y*float32(t.Height)))
}

// sampleBilinear blends the 2x2 texels whose top-left corner contains uv.
// Texel centres are not offset by half a texel, so uv on a texel's
// top-left corner returns that texel exactly.
func (t *Texture) sampleBilinear(uv math3d.Vec2) math3d.Vec3 {
	f := math3d.V2(uv.X*float32(t.Width), uv.Y*float32(t.Height))
	f0 := f.Floor()
	tx := f.X - f0.X
	ty := f.Y - f0.Y
	x, y := int(f0.X), int(f0.Y)

	top := t.At(x, y).Lerp(t.At(x+1, y), tx)
	bot := t.At(x, y+1).Lerp(t.At(x+1, y+1), tx)
	return top.Lerp(bot, ty)
}

// wrapIndex maps a texel index into [0, size).
func (t *Texture) wrapIndex(i, size int) int {
	if t.Wrap == WrapRepeat {
		i %= size
		if i < 0 {
			i += size
		}
		return i
	}
	return clampInt(i, 0, size-1)
}
