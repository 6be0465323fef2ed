package colorcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/luminaide/colorcast/internal/palette"
)

// lightCaller issues light.turn_on and waits for the platform to
// acknowledge it. Satisfied by *services.Light.
type lightCaller interface {
	TurnOnAwait(ctx context.Context, entityId string, serviceData map[string]any) error
}

// imageGetter downloads a remote image into memory. Satisfied by *fetch.Fetcher.
type imageGetter interface {
	Get(url string) ([]byte, error)
}

// handleTurnOn implements color_extractor.turn_on: validate, acquire the
// image, extract one color per target entity, then apply colors to
// entities in input order. Acquisition and extraction failures are
// logged and abort the call with no dispatch; only schema violations are
// returned to the caller.
func (app *App) handleTurnOn(ctx context.Context, call ServiceCall) error {
	req, err := ParseTurnOnRequest(call.Data)
	if err != nil {
		return err
	}

	colors := app.extractColors(req)
	if len(colors) == 0 {
		return nil
	}

	return app.dispatch(ctx, req, colors)
}

// extractColors acquires the image named by req and extracts one color
// per target entity. Returns nil on any failure, after logging it.
func (app *App) extractColors(req TurnOnRequest) []palette.Color {
	count := len(req.EntityIDs)

	if req.URL != "" {
		if !app.allow.IsAllowedExternalURL(req.URL) {
			slog.Error("External URL is not allowed, please add it to the external_urls allowlist", "url", req.URL)
			return nil
		}

		slog.Debug("Getting predominant RGB from image URL", "url", req.URL)

		data, err := app.fetcher.Get(req.URL)
		if err != nil {
			slog.Error("Failed to download image", "url", req.URL, "error", err)
			return nil
		}
		return app.quantize("URL", req.URL, data, count)
	}

	if !app.allow.IsAllowedPath(req.Path) {
		slog.Error("File path is not allowed, please add it to the external_dirs allowlist", "path", req.Path)
		return nil
	}

	slog.Debug("Getting predominant RGB from file path", "path", req.Path)

	data, err := os.ReadFile(req.Path)
	if err != nil {
		slog.Error("Failed to read image file", "path", req.Path, "error", err)
		return nil
	}
	return app.quantize("file path", req.Path, data, count)
}

func (app *App) quantize(sourceType, reference string, data []byte, count int) []palette.Color {
	colors, err := palette.Extract(data, count)
	if err != nil {
		if errors.Is(err, palette.ErrUnrecognizedImage) {
			slog.Error("Bad image provided, are you sure it's an image?",
				"source", sourceType,
				"reference", reference,
				"error", err)
		} else {
			slog.Error("Color extraction failed",
				"source", sourceType,
				"reference", reference,
				"error", err)
		}
		return nil
	}
	return colors
}

// dispatch pairs entities with colors positionally, stopping at the
// shorter list, and issues one awaited light.turn_on per pair. An error
// from one call halts the remaining deliveries; calls already issued
// stand.
func (app *App) dispatch(ctx context.Context, req TurnOnRequest, colors []palette.Color) error {
	for i, entityId := range req.EntityIDs {
		if i >= len(colors) {
			break
		}

		data := make(map[string]any, len(req.Extra)+1)
		for key, value := range req.Extra {
			data[key] = value
		}
		data[AttrRGBColor] = colors[i].RGB()

		if err := app.light.TurnOnAwait(ctx, entityId, data); err != nil {
			return fmt.Errorf("light turn_on failed for %s: %w", entityId, err)
		}
	}

	return nil
}
