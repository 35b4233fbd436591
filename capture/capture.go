package capture

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RawCapture is one immutable snapshot of a fetched page. Captures are never
// mutated or deleted by the pipeline; they exist so that structured records
// can be re-derived at any time.
type RawCapture struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url"`
	FetchedAt   time.Time `json:"fetched_at"`
	ContentHash string    `json:"content_hash"`
	Content     string    `json:"content"`
}

// Hash returns the hex SHA-256 digest of page content. Two captures of the
// same URL with equal hashes are the same capture.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", sum)
}

// captureFilename builds the on-disk name for a capture: a sanitized fragment
// of the URL plus a hash prefix, so distinct versions of a page coexist.
func captureFilename(rawURL, hash string) string {
	frag := "capture"
	if u, err := url.Parse(rawURL); err == nil {
		path := strings.Trim(u.Path, "/")
		if path != "" {
			if idx := strings.LastIndex(path, "/"); idx >= 0 {
				path = path[idx+1:]
			}
			frag = sanitize(path)
		} else if u.Host != "" {
			frag = sanitize(u.Host)
		}
	}

	return fmt.Sprintf("%s-%s.json", frag, hash[:12])
}

// sanitize lowercases s and maps anything outside [a-z0-9._-] to a dash.
func sanitize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
