// Package palette extracts dominant colors from encoded images. The
// quantization itself is delegated to prominentcolor's k-means
// implementation; this package only handles decoding and shaping the
// result.
package palette

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"log/slog"

	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/EdlinOrg/prominentcolor"
)

// ErrUnrecognizedImage indicates the supplied bytes do not decode as
// any supported image format.
var ErrUnrecognizedImage = errors.New("unrecognized image")

// downsizeTo trades precision for latency: extraction runs synchronously
// on each service call, so the image is shrunk aggressively before
// clustering.
const downsizeTo = prominentcolor.DefaultSize

// Color is a single extracted color, 0-255 per channel.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// RGB returns the color as a [r, g, b] slice, the shape Home Assistant's
// light.turn_on expects for rgb_color.
func (c Color) RGB() []int {
	return []int{int(c.R), int(c.G), int(c.B)}
}

func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Extract decodes data and returns up to count dominant colors, ordered
// most dominant first. count == 1 yields the single predominant color.
// Undecodable input returns an error wrapping ErrUnrecognizedImage.
func Extract(data []byte, count int) ([]Color, error) {
	if count < 1 {
		return nil, fmt.Errorf("color count must be at least 1, got %d", count)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedImage, err)
	}

	items, err := prominentcolor.KmeansWithAll(count, img, prominentcolor.ArgumentNoCropping,
		downsizeTo, []prominentcolor.ColorBackgroundMask{})
	if err != nil {
		return nil, fmt.Errorf("color quantization failed: %w", err)
	}

	colors := make([]Color, 0, len(items))
	for _, item := range items {
		colors = append(colors, Color{
			R: uint8(item.Color.R),
			G: uint8(item.Color.G),
			B: uint8(item.Color.B),
		})
	}

	slog.Debug("Extracted colors from image", "format", format, "requested", count, "returned", len(colors))

	return colors, nil
}
