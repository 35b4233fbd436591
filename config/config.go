// Package config loads the pipeline's file configuration. Everything the
// pipeline needs is carried in an explicit Config value; nothing is read from
// process-wide state at run time.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration for one ingestion setup.
type Config struct {
	// SeedURLs is the fixed, ordered list of pages to ingest.
	SeedURLs []string `yaml:"seed_urls"`

	// FeedURL, when set, is an RSS/Atom feed used to discover seed URLs in
	// addition to SeedURLs.
	FeedURL string `yaml:"feed_url"`

	// SeedPathPrefixes filters feed-discovered URLs by path prefix.
	SeedPathPrefixes []string `yaml:"seed_path_prefixes"`

	RawDir       string `yaml:"raw_dir"`
	ProcessedDir string `yaml:"processed_dir"`

	SkipExisting        bool `yaml:"skip_existing"`
	FetchTimeoutSeconds int  `yaml:"fetch_timeout_seconds"`
	Concurrency         int  `yaml:"concurrency"`
	CrawlDelaySeconds   int  `yaml:"crawl_delay_seconds"`
	MinBodyLength       int  `yaml:"min_body_length"`

	UserAgent string `yaml:"user_agent"`

	// Renderer selects the page fetcher: "http" (default) or "chrome".
	Renderer string `yaml:"renderer"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		RawDir:              "data/raw",
		ProcessedDir:        "data/processed",
		SkipExisting:        true,
		FetchTimeoutSeconds: 30,
		Concurrency:         1,
		CrawlDelaySeconds:   2,
		MinBodyLength:       1,
		Renderer:            "http",
	}
}

// Load reads configuration from a YAML file. A missing file is not an error:
// defaults are returned. A file that exists but cannot be parsed is an error.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.RawDir == "" {
		return fmt.Errorf("raw_dir must not be empty")
	}
	if c.ProcessedDir == "" {
		return fmt.Errorf("processed_dir must not be empty")
	}
	if c.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("fetch_timeout_seconds must be positive")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if c.Renderer != "" && c.Renderer != "http" && c.Renderer != "chrome" {
		return fmt.Errorf("renderer must be \"http\" or \"chrome\", got %q", c.Renderer)
	}
	return nil
}

// FetchTimeout returns the per-fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// CrawlDelay returns the pause between consecutive live fetches.
func (c *Config) CrawlDelay() time.Duration {
	return time.Duration(c.CrawlDelaySeconds) * time.Second
}
