// Package ingest orchestrates a small content-ingestion pipeline: a fixed
// seed of page URLs is fetched, each page is persisted as an immutable raw
// capture, and a normalized structured record is derived from every capture.
// Per-URL failures never abort a run; they are collected into the run report.
package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/blogcorpus/ingest/capture"
	"github.com/blogcorpus/ingest/fetch"
	"github.com/blogcorpus/ingest/normalize"
	"github.com/blogcorpus/ingest/record"
)

// Options configures a pipeline run.
type Options struct {
	// SkipExisting reuses a stored capture for a URL instead of fetching it
	// again. With unchanged sources this makes re-runs write nothing new.
	SkipExisting bool

	// FetchTimeout bounds each page fetch.
	FetchTimeout time.Duration

	// Concurrency is the number of URLs processed in parallel. One means
	// strictly sequential processing in seed order.
	Concurrency int

	// CrawlDelay is the pause between consecutive live fetches in sequential
	// mode. Reused captures don't count; parallel runs don't pause.
	CrawlDelay time.Duration
}

// Pipeline wires a page fetcher and the two stores into the
// fetch -> raw -> normalize -> processed flow.
type Pipeline struct {
	fetcher    fetch.PageFetcher
	raw        *capture.Store
	processed  *record.Store
	normalizer *normalize.Normalizer
	opts       Options
	logger     *log.Logger
}

// New creates a Pipeline. A nil logger falls back to the default logger.
func New(
	fetcher fetch.PageFetcher,
	raw *capture.Store,
	processed *record.Store,
	normalizer *normalize.Normalizer,
	opts Options,
	logger *log.Logger,
) *Pipeline {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Pipeline{
		fetcher:    fetcher,
		raw:        raw,
		processed:  processed,
		normalizer: normalizer,
		opts:       opts,
		logger:     logger,
	}
}

// Run processes every seed URL and returns the run report. The report is
// always non-nil; the error is reserved for failures that make the run
// unobservable, not for per-URL problems.
func (p *Pipeline) Run(ctx context.Context, seedURLs []string) (*Report, error) {
	report := &Report{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
	}

	if p.opts.Concurrency > 1 {
		p.runParallel(ctx, seedURLs, report)
	} else {
		p.runSequential(ctx, seedURLs, report)
	}

	report.FinishedAt = time.Now().UTC()

	p.logger.Info("run finished",
		"run_id", report.RunID,
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"duration", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)

	return report, nil
}

// runSequential processes URLs one at a time in seed order, pausing between
// live fetches.
func (p *Pipeline) runSequential(ctx context.Context, seedURLs []string, report *Report) {
	fetchedLast := false
	for _, url := range seedURLs {
		if fetchedLast && p.opts.CrawlDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(p.opts.CrawlDelay):
			}
		}

		outcome, fetched := p.processURL(ctx, url)
		fetchedLast = fetched
		report.add(outcome)
	}
}

// runParallel processes URLs with a bounded number of workers. Outcomes are
// the same as a sequential run; only their arrival order differs.
func (p *Pipeline) runParallel(ctx context.Context, seedURLs []string, report *Report) {
	sem := make(chan struct{}, p.opts.Concurrency)
	var wg sync.WaitGroup

	for _, url := range seedURLs {
		sem <- struct{}{}
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, _ := p.processURL(ctx, u)
			report.add(outcome)
		}(url)
	}

	wg.Wait()
}

// processURL runs the full per-URL flow. The second return value reports
// whether a live fetch was attempted (as opposed to reusing a capture).
func (p *Pipeline) processURL(ctx context.Context, url string) (Outcome, bool) {
	var c *capture.RawCapture

	if p.opts.SkipExisting {
		existing, err := p.raw.Get(url)
		if err != nil {
			return p.fail(url, "storage_error: "+err.Error()), false
		}
		if existing != nil {
			p.logger.Debug("reusing stored capture", "url", url, "hash", existing.ContentHash)
			c = existing
		}
	}

	fetched := false
	if c == nil {
		fetched = true

		fetchCtx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
		content, err := p.fetcher.Fetch(fetchCtx, url)
		cancel()
		if err != nil {
			return p.fail(url, "fetch_error: "+err.Error()), fetched
		}

		c, err = p.raw.Put(url, content)
		if err != nil {
			return p.fail(url, "storage_error: "+err.Error()), fetched
		}
	}

	rec, err := p.normalizer.Normalize(c)
	if err != nil {
		return p.fail(url, "normalize_error: "+err.Error()), fetched
	}

	if err := p.processed.Put(*rec); err != nil {
		return p.fail(url, "storage_error: "+err.Error()), fetched
	}

	p.logger.Info("processed", "url", url, "id", rec.ID, "title", rec.Title)

	return Outcome{URL: url, Record: rec}, fetched
}

func (p *Pipeline) fail(url, reason string) Outcome {
	p.logger.Error("failed", "url", url, "reason", reason)
	return Outcome{URL: url, Reason: reason}
}
