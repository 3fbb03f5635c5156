// package common contains plain helper types and functions shared across the engine: staging data, math helpers,
// geo projection and the package-wide logger.
package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrEmptyImage is returned when DecodeImage is given no bytes.
var ErrEmptyImage = errors.New("image data is empty")

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
// It doubles as the CPU-side description used to re-create the texture after the device is recreated.
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// BytesPerRow returns the row pitch of the staged pixels.
func (t TextureStagingData) BytesPerRow() uint32 {
	return t.Width * 4
}

// DecodeImage decodes PNG, JPEG, BMP or WebP bytes into RGBA staging data.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - data: the encoded image bytes
//
// Returns:
//   - TextureStagingData: the decoded pixels and dimensions
//   - error: error if data is empty or cannot be decoded
func DecodeImage(data []byte) (TextureStagingData, error) {
	if len(data) == 0 {
		return TextureStagingData{}, ErrEmptyImage
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	Logger().Debug("decoded image", "format", format, "width", bounds.Dx(), "height", bounds.Dy())
	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
