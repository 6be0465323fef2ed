package internal

import (
	"fmt"
	"sync/atomic"
)

var (
	currentVersion = "0.1.0"
)

var (
	id atomic.Int64 // default value is 0
)

// Version returns the library version, used for User-Agent headers.
func Version() string {
	return currentVersion
}

// NextId returns a unique integer (for the given process), often used for providing a uniquely identifiable ID for a request. This function is thread-safe.
func NextId() int64 {
	return id.Add(1)
}

// GetEquivalentWebsocketScheme returns the equivalent WebSocket scheme for the given scheme.
// If the scheme is http or https, it returns ws or wss respectively.
// If the scheme is ws or wss, it returns the same scheme.
// If the scheme is not any of the above, it returns an error.
func GetEquivalentWebsocketScheme(scheme string) (string, error) {
	switch scheme {
	case "http":
		return "ws", nil
	case "https":
		return "wss", nil
	case "ws", "wss":
		return scheme, nil
	default:
		return "", fmt.Errorf("unexpected scheme: %s", scheme)
	}
}
