// Package normalize derives structured records from raw page captures. The
// transformation is deterministic: every field of the output, including the
// extraction timestamp, is a pure function of the capture.
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/blogcorpus/ingest/capture"
	"github.com/blogcorpus/ingest/record"
)

// ErrEmptyContent indicates a capture with no extractable body text, usually
// a page that failed to render.
var ErrEmptyContent = errors.New("no extractable content")

// dateFormats are tried in order when parsing structural date markers.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

// Normalizer converts raw captures into structured records.
type Normalizer struct {
	// MinBodyLength is the smallest body (in bytes, after whitespace
	// collapsing) accepted as real content.
	MinBodyLength int

	sanitizer *bluemonday.Policy
	md        *converter.Converter
}

// New creates a Normalizer with the given minimum body length. Values below
// one are treated as one (an empty body is never acceptable).
func New(minBodyLength int) *Normalizer {
	if minBodyLength < 1 {
		minBodyLength = 1
	}

	return &Normalizer{
		MinBodyLength: minBodyLength,
		sanitizer:     bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Normalize extracts a structured record from a raw capture. It fails with an
// error wrapping ErrEmptyContent when the page has no usable body text.
func (n *Normalizer) Normalize(c *capture.RawCapture) (*record.StructuredRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(c.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Strip everything that never contributes visible article text.
	doc.Find("script, style, noscript, nav, header, footer").Remove()

	content := contentSelection(doc)
	title := extractTitle(doc)

	// Snapshot the HTML before headings are dropped so the markdown
	// rendering keeps them.
	contentHTML, _ := content.Html()

	// The title is reported separately; it is not part of the body.
	content.Find("h1").Remove()

	body := collapseWhitespace(content.Text())
	if len(body) < n.MinBodyLength {
		return nil, fmt.Errorf("%w: body is %d bytes (minimum %d)", ErrEmptyContent, len(body), n.MinBodyLength)
	}

	return &record.StructuredRecord{
		ID:                record.IDFromURL(c.URL),
		SourceURL:         c.URL,
		Title:             title,
		Body:              body,
		Markdown:          n.renderMarkdown(contentHTML, c.URL, body),
		PublishDate:       extractPublishDate(doc),
		ExtractedAt:       c.FetchedAt.UTC(),
		SourceCaptureHash: c.ContentHash,
	}, nil
}

// contentSelection picks the smallest element likely to hold the article:
// <article>, then <main>, then the whole body.
func contentSelection(doc *goquery.Document) *goquery.Selection {
	for _, selector := range []string{"article", "main"} {
		sel := doc.Find(selector).First()
		if sel.Length() > 0 && strings.TrimSpace(sel.Text()) != "" {
			return sel
		}
	}
	return doc.Selection
}

// extractTitle returns the first h1 heading, falling back to the document
// title, falling back to a placeholder.
func extractTitle(doc *goquery.Document) string {
	title := collapseWhitespace(doc.Find("h1").First().Text())
	if title == "" {
		title = collapseWhitespace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = "(No title)"
	}
	return title
}

// extractPublishDate looks for known structural markers. A missing or
// unparseable date is not an error; the field is simply absent.
func extractPublishDate(doc *goquery.Document) *time.Time {
	candidates := []string{}

	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		candidates = append(candidates, v)
	}
	if v, ok := doc.Find(`meta[property="article:published_time"]`).First().Attr("content"); ok {
		candidates = append(candidates, v)
	}
	if v, ok := doc.Find(`meta[name="date"]`).First().Attr("content"); ok {
		candidates = append(candidates, v)
	}
	if v := doc.Find("time").First().Text(); v != "" {
		candidates = append(candidates, collapseWhitespace(v))
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		for _, format := range dateFormats {
			if t, err := time.Parse(format, candidate); err == nil {
				utc := t.UTC()
				return &utc
			}
		}
	}

	return nil
}

// renderMarkdown converts content HTML to markdown, sanitizing it first.
// Falls back to the plain-text body if conversion fails or produces nothing.
func (n *Normalizer) renderMarkdown(html, sourceURL, fallback string) string {
	if strings.TrimSpace(html) == "" {
		return fallback
	}

	clean := n.sanitizer.Sanitize(html)

	result, err := n.md.ConvertString(clean, converter.WithDomain(sourceURL))
	if err != nil || strings.TrimSpace(result) == "" {
		return fallback
	}

	return strings.TrimSpace(result)
}

// collapseWhitespace replaces runs of whitespace with single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
