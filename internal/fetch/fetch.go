// Package fetch downloads remote images into memory for color
// extraction. Requests carry a hard timeout and are never retried;
// a slow or failing source aborts the request rather than queueing
// work behind it.
package fetch

import (
	"context"
	"errors"
	"time"

	"resty.dev/v3"

	"github.com/luminaide/colorcast/internal"
)

// Timeout is the hard deadline for a single image download.
const Timeout = 10 * time.Second

type Fetcher struct {
	client *resty.Client
}

func NewFetcher(ctx context.Context) *Fetcher {
	return newFetcher(ctx, Timeout)
}

func newFetcher(ctx context.Context, timeout time.Duration) *Fetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "colorcast/"+internal.Version()).
		SetContext(ctx)

	return &Fetcher{client: client}
}

// Get downloads the image at url and buffers the full body in memory.
func (f *Fetcher) Get(url string) ([]byte, error) {
	resp, err := f.client.R().Get(url)

	if err != nil {
		return nil, errors.New("Error making HTTP request: " + err.Error())
	}

	if resp.StatusCode() >= 400 {
		return nil, errors.New("HTTP error: " + resp.Status())
	}

	return resp.Bytes(), nil
}
