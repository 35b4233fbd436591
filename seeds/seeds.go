// Package seeds produces the fixed list of page URLs the pipeline visits.
// Seeds either come straight from configuration or are discovered once, up
// front, from the blog's RSS/Atom feed. There is no link-following: the seed
// set is closed before the pipeline starts.
package seeds

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
)

// FromFeed fetches the blog's RSS or Atom feed and returns the linked post
// URLs in feed order. When pathPrefixes is non-empty, only URLs whose path
// starts with one of the prefixes are kept (e.g. "/posts/", "/general/").
func FromFeed(feedURL string, pathPrefixes []string) ([]string, error) {
	fp := gofeed.NewParser()
	feed, err := fp.ParseURL(feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	var urls []string
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		if !matchesPrefix(link, pathPrefixes) {
			continue
		}
		urls = append(urls, link)
	}

	return Dedupe(urls), nil
}

// Dedupe removes duplicate URLs, keeping first-seen order.
func Dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// matchesPrefix reports whether the URL's path starts with any of the given
// prefixes. An empty prefix list matches everything.
func matchesPrefix(rawURL string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	for _, prefix := range prefixes {
		if strings.HasPrefix(u.Path, prefix) {
			return true
		}
	}
	return false
}
