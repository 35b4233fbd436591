package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHTTPFetcher_Success verifies a plain successful fetch.
func TestHTTPFetcher_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(HTTPOptions{})
	content, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html><body>hello</body></html>", content)
}

// TestHTTPFetcher_SetsUserAgent verifies the configured User-Agent is sent.
func TestHTTPFetcher_SetsUserAgent(t *testing.T) {
	var gotAgent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent.Store(r.Header.Get("User-Agent"))
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(HTTPOptions{UserAgent: "test-agent/2.0"})
	_, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "test-agent/2.0", gotAgent.Load())
}

// TestHTTPFetcher_NonSuccessStatus verifies that a 404 fails immediately with
// a FetchError carrying the status code.
func TestHTTPFetcher_NonSuccessStatus(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewHTTPFetcher(HTTPOptions{})
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Equal(t, int32(1), requests.Load(), "404 should not be retried")
}

// TestHTTPFetcher_RetriesTransientErrors verifies that a 503 is retried and
// the fetch eventually succeeds.
func TestHTTPFetcher_RetriesTransientErrors(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(HTTPOptions{Attempts: 3, RetryWait: time.Millisecond})
	content, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "finally", content)
	assert.Equal(t, int32(3), requests.Load())
}

// TestHTTPFetcher_ExhaustedRetries verifies the last error is returned when
// every attempt fails.
func TestHTTPFetcher_ExhaustedRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewHTTPFetcher(HTTPOptions{Attempts: 2, RetryWait: time.Millisecond})
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
}

// TestHTTPFetcher_Timeout verifies that a slow server trips the context
// deadline.
func TestHTTPFetcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("too late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	f := NewHTTPFetcher(HTTPOptions{Attempts: 1})
	_, err := f.Fetch(ctx, server.URL)
	require.Error(t, err)
}

// TestHTTPFetcher_LimitsBodySize verifies that oversized responses are
// truncated rather than read in full.
func TestHTTPFetcher_LimitsBodySize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 4096))
	}))
	defer server.Close()

	f := NewHTTPFetcher(HTTPOptions{MaxBytes: 1024})
	content, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, content, 1024)
}
