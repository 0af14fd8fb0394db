// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// Valid reports whether the staging data describes a non-empty RGBA image whose
// pixel slice matches its dimensions.
func (t TextureStagingData) Valid() bool {
	return t.Width > 0 && t.Height > 0 && len(t.Pixels) == int(t.Width*t.Height*4)
}

// DecodeTexture decodes an image stream into RGBA staging data.
// Supports PNG, JPEG, GIF, BMP and WebP.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - r: the encoded image stream
//
// Returns:
//   - TextureStagingData: raw RGBA pixel data (4 bytes per pixel, row-major order) and dimensions
//   - error: error if decoding fails
func DecodeTexture(r io.Reader) (TextureStagingData, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}

// LoadTextureFile opens and decodes the image at path into RGBA staging data.
//
// Parameters:
//   - path: the file path of the image
//
// Returns:
//   - TextureStagingData: the decoded pixels and dimensions
//   - error: error if the file cannot be opened or decoded
func LoadTextureFile(path string) (TextureStagingData, error) {
	file, err := os.Open(path)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to open texture file %s: %w", path, err)
	}
	defer file.Close()

	data, err := DecodeTexture(file)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("texture file %s: %w", path, err)
	}
	return data, nil
}
