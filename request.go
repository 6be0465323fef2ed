package colorcast

import (
	"fmt"
	"net/url"
)

// Service data attribute names, matching Home Assistant's light schema.
const (
	AttrEntityID = "entity_id"
	AttrURL      = "color_extract_url"
	AttrPath     = "color_extract_path"
	AttrRGBColor = "rgb_color"

	attrBrightness = "brightness"
	attrTransition = "transition"
)

// TurnOnRequest is a validated color_extractor.turn_on invocation.
// Exactly one of URL and Path is set. Extra carries pass-through
// light.turn_on fields, forwarded unmodified per target entity.
type TurnOnRequest struct {
	EntityIDs []string
	URL       string
	Path      string
	Extra     map[string]any
}

// ParseTurnOnRequest validates raw service data and shapes it into a
// TurnOnRequest. It fails fast on schema violations, before any I/O
// happens downstream.
func ParseTurnOnRequest(data map[string]any) (TurnOnRequest, error) {
	var req TurnOnRequest

	entities, err := parseEntityIDs(data[AttrEntityID])
	if err != nil {
		return req, err
	}
	req.EntityIDs = entities

	rawURL, hasURL := data[AttrURL]
	rawPath, hasPath := data[AttrPath]
	if hasURL == hasPath {
		return req, fmt.Errorf("%w: exactly one of %s and %s must be provided", ErrInvalidArgs, AttrURL, AttrPath)
	}

	if hasURL {
		s, ok := rawURL.(string)
		if !ok || s == "" {
			return req, fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidArgs, AttrURL)
		}
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return req, fmt.Errorf("%w: %s must be a valid http(s) URL", ErrInvalidArgs, AttrURL)
		}
		req.URL = s
	} else {
		s, ok := rawPath.(string)
		if !ok || s == "" {
			return req, fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidArgs, AttrPath)
		}
		req.Path = s
	}

	req.Extra = make(map[string]any)
	for key, value := range data {
		switch key {
		case AttrEntityID, AttrURL, AttrPath:
			continue
		}
		req.Extra[key] = value
	}

	if err := validateLightFields(req.Extra); err != nil {
		return req, err
	}

	return req, nil
}

func parseEntityIDs(raw any) ([]string, error) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%w: %s must not be empty", ErrInvalidArgs, AttrEntityID)
		}
		return []string{v}, nil
	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: %s must not be empty", ErrInvalidArgs, AttrEntityID)
		}
		return v, nil
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: %s must not be empty", ErrInvalidArgs, AttrEntityID)
		}
		ids := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, fmt.Errorf("%w: %s entries must be non-empty strings", ErrInvalidArgs, AttrEntityID)
			}
			ids = append(ids, s)
		}
		return ids, nil
	case nil:
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidArgs, AttrEntityID)
	default:
		return nil, fmt.Errorf("%w: %s must be a string or list of strings", ErrInvalidArgs, AttrEntityID)
	}
}

// validateLightFields spot-checks the pass-through fields this component
// forwards to light.turn_on.
func validateLightFields(extra map[string]any) error {
	if raw, ok := extra[attrBrightness]; ok {
		b, ok := asFloat(raw)
		if !ok || b < 0 || b > 255 {
			return fmt.Errorf("%w: %s must be a number between 0 and 255", ErrInvalidArgs, attrBrightness)
		}
	}
	if raw, ok := extra[attrTransition]; ok {
		t, ok := asFloat(raw)
		if !ok || t < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidArgs, attrTransition)
		}
	}
	return nil
}

func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}
