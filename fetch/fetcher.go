package fetch

import (
	"context"
	"fmt"
)

// PageFetcher converts a URL into fetched page content. Implementations may
// use plain HTTP, a headless browser, or anything else that can produce the
// page's HTML. The context carries the caller's per-fetch timeout.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetchError describes a failed fetch attempt. StatusCode is zero when the
// failure happened before a response was received (network error, timeout).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
