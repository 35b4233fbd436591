package fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeFetcher fetches pages with a headless Chrome instance so that
// JavaScript-rendered blogs produce real content. The browser is shared; each
// Fetch runs in its own tab.
type ChromeFetcher struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	waitTime      time.Duration
}

// NewChromeFetcher starts a headless browser. waitTime, if positive, is an
// extra pause after the page body is ready, for blogs that render late.
func NewChromeFetcher(waitTime time.Duration) *ChromeFetcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &ChromeFetcher{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		waitTime:      waitTime,
	}
}

// Fetch navigates to the URL in a new tab and returns the rendered HTML.
func (f *ChromeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(f.browserCtx)
	defer cancel()

	if deadline, ok := ctx.Deadline(); ok {
		var timeoutCancel context.CancelFunc
		tabCtx, timeoutCancel = context.WithDeadline(tabCtx, deadline)
		defer timeoutCancel()
	}

	tasks := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if f.waitTime > 0 {
		tasks = append(tasks, chromedp.Sleep(f.waitTime))
	}

	var pageHTML string
	tasks = append(tasks, chromedp.OuterHTML("html", &pageHTML))

	if err := chromedp.Run(tabCtx, tasks...); err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	return pageHTML, nil
}

// Close shuts down the shared browser.
func (f *ChromeFetcher) Close() {
	f.browserCancel()
	f.allocCancel()
}
