package record

import (
	"net/url"
	"strings"
	"time"
)

// StructuredRecord is the normalized, derived representation of one page,
// suitable for downstream training-data use. It is a cache of the
// normalization step: safe to delete and regenerate from the raw capture
// named by SourceCaptureHash.
type StructuredRecord struct {
	ID                string     `json:"id"`
	SourceURL         string     `json:"source_url"`
	Title             string     `json:"title"`
	Body              string     `json:"body"`
	Markdown          string     `json:"markdown,omitempty"`
	PublishDate       *time.Time `json:"publish_date,omitempty"`
	ExtractedAt       time.Time  `json:"extracted_at"`
	SourceCaptureHash string     `json:"source_capture_hash"`
}

// IDFromURL derives the stable record identifier for a page URL: the last
// non-empty path segment, lowercased, with unsafe runes mapped to dashes.
// When the URL has no path the host is used instead.
func IDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return slugify(rawURL)
	}

	path := strings.Trim(u.Path, "/")
	if path == "" {
		return slugify(u.Host)
	}

	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}

	// Drop a trailing .html-style extension so /posts/foo.html and
	// /posts/foo yield the same id.
	if idx := strings.LastIndex(path, "."); idx > 0 {
		switch path[idx:] {
		case ".html", ".htm", ".php":
			path = path[:idx]
		}
	}

	return slugify(path)
}

func slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
