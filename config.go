package colorcast

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/luminaide/colorcast/types"
)

// Config is the process-wide configuration, usually loaded once from a
// YAML file at startup and never mutated afterwards.
type Config struct {
	// URL of the Home Assistant instance, e.g. "http://192.168.1.10:8123".
	URL string `yaml:"url"`

	// Token is a long-lived access token generated in Home Assistant.
	Token string `yaml:"token"`

	Allow AllowLists `yaml:"allow"`

	// Home holds the coordinates used for sunrise/sunset calculations.
	Home HomeLocation `yaml:"home"`

	// SyncJobs declares periodic extract-and-dispatch jobs.
	SyncJobs []SyncJobConfig `yaml:"sync"`
}

// AllowLists restricts which image sources service calls may reference.
// Both lists are queried, never mutated, after load.
type AllowLists struct {
	// ExternalURLs lists URL prefixes remote images may be fetched from.
	ExternalURLs []string `yaml:"external_urls"`

	// ExternalDirs lists directories local images may be read from.
	ExternalDirs []string `yaml:"external_dirs"`
}

type HomeLocation struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// SyncJobConfig is the YAML shape of a sync job declaration.
type SyncJobConfig struct {
	Entities      []string             `yaml:"entities"`
	URL           string               `yaml:"url"`
	Path          string               `yaml:"path"`
	Every         types.DurationString `yaml:"every"`
	StartingAt    types.TimeString     `yaml:"starting_at"`
	OnlyAfterDark bool                 `yaml:"only_after_dark"`
	ServiceData   map[string]any       `yaml:"service_data"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// IsAllowedExternalURL reports whether rawURL falls under one of the
// allowed URL prefixes. Prefixes match on full path segments, so
// "http://host/images" allows "http://host/images/a.png" but not
// "http://host/images-evil".
func (a AllowLists) IsAllowedExternalURL(rawURL string) bool {
	candidate := strings.TrimSuffix(rawURL, "/")
	for _, allowed := range a.ExternalURLs {
		allowed = strings.TrimSuffix(allowed, "/")
		if allowed == "" {
			continue
		}
		if candidate == allowed || strings.HasPrefix(candidate, allowed+"/") {
			return true
		}
	}
	return false
}

// IsAllowedPath reports whether path points inside one of the allowed
// external directories.
func (a AllowLists) IsAllowedPath(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	for _, dir := range a.ExternalDirs {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absDir, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
