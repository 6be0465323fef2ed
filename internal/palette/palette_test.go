package palette

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidImage(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestExtractSingleDominantColor(t *testing.T) {
	data := encodePNG(t, solidImage(color.RGBA{R: 255, A: 255}))

	colors, err := Extract(data, 1)
	require.NoError(t, err)
	require.Len(t, colors, 1)
	assert.Equal(t, Color{R: 255, G: 0, B: 0}, colors[0])
}

func TestExtractPalette(t *testing.T) {
	// left half red, right half blue
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			if x < 24 {
				img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}

	colors, err := Extract(encodePNG(t, img), 2)
	require.NoError(t, err)
	require.NotEmpty(t, colors)
	assert.LessOrEqual(t, len(colors), 2)

	// every returned color should sit near one of the two inputs
	for _, c := range colors {
		nearRed := int(c.R) > 200 && int(c.B) < 60
		nearBlue := int(c.B) > 200 && int(c.R) < 60
		assert.True(t, nearRed || nearBlue, "unexpected color %s", c)
	}
}

func TestExtractUnrecognizedImage(t *testing.T) {
	_, err := Extract([]byte("this is not an image"), 1)
	require.ErrorIs(t, err, ErrUnrecognizedImage)
}

func TestExtractInvalidCount(t *testing.T) {
	data := encodePNG(t, solidImage(color.RGBA{R: 255, A: 255}))

	_, err := Extract(data, 0)
	assert.Error(t, err)

	_, err = Extract(data, -3)
	assert.Error(t, err)
}

func TestColorHelpers(t *testing.T) {
	c := Color{R: 10, G: 20, B: 30}
	assert.Equal(t, []int{10, 20, 30}, c.RGB())
	assert.Equal(t, "#0A141E", c.String())
}
