package fetch

import (
	"context"
	"io"
	"net/http"
	"time"
)

const (
	defaultUserAgent = "blogcorpus-ingest/1.0 (content ingestion pipeline)"
	defaultMaxBytes  = 10 * 1024 * 1024
	defaultAttempts  = 3
	defaultRetryWait = 500 * time.Millisecond
)

// HTTPFetcher fetches pages with a plain HTTP GET. It retries transient
// server errors and caps the response body size.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	attempts  int
	retryWait time.Duration
}

// HTTPOptions configures an HTTPFetcher. The zero value gets sensible
// defaults from NewHTTPFetcher.
type HTTPOptions struct {
	UserAgent string
	MaxBytes  int64
	Attempts  int
	RetryWait time.Duration
}

// NewHTTPFetcher creates an HTTPFetcher. Per-request timeouts come from the
// context passed to Fetch, so the underlying client has no timeout of its own.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = defaultRetryWait
	}

	return &HTTPFetcher{
		client:    &http.Client{},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		attempts:  opts.Attempts,
		retryWait: opts.RetryWait,
	}
}

// Fetch performs the GET and returns the page body as a string.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= f.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", &FetchError{URL: url, Err: ctx.Err()}
			case <-time.After(f.retryWait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", &FetchError{URL: url, Err: err}
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = &FetchError{URL: url, Err: err}
			if ctx.Err() != nil {
				return "", lastErr
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = &FetchError{URL: url, StatusCode: resp.StatusCode}
			if !isRetryableStatus(resp.StatusCode) {
				return "", lastErr
			}
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
		resp.Body.Close()
		if err != nil {
			lastErr = &FetchError{URL: url, Err: err}
			continue
		}

		return string(body), nil
	}

	return "", lastErr
}

// isRetryableStatus reports whether a status code indicates a temporary
// failure worth retrying.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
