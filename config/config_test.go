package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_MissingFileReturnsDefaults verifies that a missing config file is
// not an error.
func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// TestLoad_ParsesFile verifies YAML parsing and that file values override
// defaults.
func TestLoad_ParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.yaml")
	content := `
seed_urls:
  - https://example.com/post-1
  - https://example.com/post-2
feed_url: https://example.com/feed.xml
seed_path_prefixes: ["/posts/"]
raw_dir: /tmp/raw
processed_dir: /tmp/processed
skip_existing: false
fetch_timeout_seconds: 15
concurrency: 4
crawl_delay_seconds: 3
min_body_length: 50
user_agent: custom-agent/1.0
renderer: chrome
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/post-1", "https://example.com/post-2"}, cfg.SeedURLs)
	assert.Equal(t, "https://example.com/feed.xml", cfg.FeedURL)
	assert.Equal(t, []string{"/posts/"}, cfg.SeedPathPrefixes)
	assert.Equal(t, "/tmp/raw", cfg.RawDir)
	assert.Equal(t, "/tmp/processed", cfg.ProcessedDir)
	assert.False(t, cfg.SkipExisting)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 3*time.Second, cfg.CrawlDelay())
	assert.Equal(t, 50, cfg.MinBodyLength)
	assert.Equal(t, "custom-agent/1.0", cfg.UserAgent)
	assert.Equal(t, "chrome", cfg.Renderer)
}

// TestLoad_InvalidYAML verifies that a malformed file is an error.
func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed_urls: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

// TestValidate covers the rejection cases.
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty raw_dir", func(c *Config) { c.RawDir = "" }},
		{"empty processed_dir", func(c *Config) { c.ProcessedDir = "" }},
		{"zero timeout", func(c *Config) { c.FetchTimeoutSeconds = 0 }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"bad renderer", func(c *Config) { c.Renderer = "lynx" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// TestValidate_Defaults verifies the default config is valid.
func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
