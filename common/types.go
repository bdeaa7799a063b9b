// package common contains common types that are used throughout this editor. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

// MaxTextureSize is the largest edge length a decoded texture keeps. Larger images are scaled down on decode.
const MaxTextureSize = 4096

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// Valid reports whether the pixel buffer matches the declared dimensions.
func (t TextureStagingData) Valid() bool {
	return t.Width > 0 && t.Height > 0 && len(t.Pixels) == int(t.Width*t.Height*4)
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// LoadTexture decodes a PNG, JPEG or BMP file into RGBA staging data.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - path: the image file on disk
//
// Returns:
//   - TextureStagingData: the decoded pixels
//   - error: error if the file cannot be opened or decoded
func LoadTexture(path string) (TextureStagingData, error) {
	file, err := os.Open(path)
	if err != nil {
		return TextureStagingData{}, errors.Wrapf(err, "open texture %s", path)
	}
	defer file.Close()

	data, err := DecodeTexture(file)
	if err != nil {
		return TextureStagingData{}, errors.Wrapf(err, "texture %s", path)
	}
	return data, nil
}

// DecodeTexture decodes an encoded image stream into RGBA staging data, scaling it down
// so neither edge exceeds MaxTextureSize.
//
// Parameters:
//   - r: the encoded image
//
// Returns:
//   - TextureStagingData: the decoded pixels
//   - error: error if the image cannot be decoded
func DecodeTexture(r io.Reader) (TextureStagingData, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return TextureStagingData{}, errors.Wrap(err, "decode image")
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return TextureStagingData{}, errors.New("decode image: empty image")
	}

	if width > MaxTextureSize || height > MaxTextureSize {
		scale := float64(MaxTextureSize) / float64(max(width, height))
		width = max(int(float64(width)*scale), 1)
		height = max(int(float64(height)*scale), 1)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == bounds.Dx() && height == bounds.Dy() {
		xdraw.Draw(rgba, rgba.Bounds(), img, bounds.Min, xdraw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(rgba, rgba.Bounds(), img, bounds, xdraw.Src, nil)
	}

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(width),
		Height: uint32(height),
	}, nil
}

// CheckerTexture generates a square checkerboard texture.
//
// Parameters:
//   - size: edge length in pixels
//   - cells: number of cells along each edge
//   - a, b: the two alternating colors
//
// Returns:
//   - TextureStagingData: the generated pixels
func CheckerTexture(size, cells int, a, b color.RGBA) TextureStagingData {
	if cells < 1 {
		cells = 1
	}
	cell := max(size/cells, 1)
	pix := make([]byte, size*size*4)
	for y := range size {
		for x := range size {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			i := (y*size + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return TextureStagingData{Pixels: pix, Width: uint32(size), Height: uint32(size)}
}

// SolidTexture generates a 1x1 texture of a single color.
func SolidTexture(c color.RGBA) TextureStagingData {
	return TextureStagingData{Pixels: []byte{c.R, c.G, c.B, c.A}, Width: 1, Height: 1}
}
