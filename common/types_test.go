package common

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	staged, err := DecodeImage(encodePNG(t, 3, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255}))
	require.NoError(t, err)

	assert.Equal(t, uint32(3), staged.Width)
	assert.Equal(t, uint32(2), staged.Height)
	assert.Equal(t, uint32(12), staged.BytesPerRow())
	require.Len(t, staged.Pixels, 3*2*4)
	assert.Equal(t, []byte{10, 20, 30, 255}, staged.Pixels[:4])
}

func TestDecodeImageErrors(t *testing.T) {
	_, err := DecodeImage(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = DecodeImage([]byte("not an image"))
	assert.Error(t, err)
}
