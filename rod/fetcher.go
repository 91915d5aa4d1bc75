// Package rod provides a headless-browser implementation of
// gazette.Fetcher using Chrome automation, for sources that render their
// listing with JavaScript or sit behind interstitial bot checks.
package rod

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/fangeriz/gazette"
)

// DefaultElementWait bounds the wait for content markers (anchor
// elements) before falling back to a fixed render delay.
const DefaultElementWait = 15 * time.Second

// DefaultRenderDelay is the fixed fallback wait when no anchor appears
// within the element wait, and the post-load settle time otherwise.
const DefaultRenderDelay = 5 * time.Second

// DefaultSentinels mark a "still loading / blocked" interstitial page.
// Matching is case-insensitive.
var DefaultSentinels = []string{
	"un momento",
	"just a moment",
	"checking your browser",
	"enable javascript",
	"cf-browser-verification",
}

// IsBlockedPage reports whether rendered HTML is an interstitial rather
// than real content. An empty sentinel list uses DefaultSentinels.
func IsBlockedPage(html string, sentinels []string) bool {
	if len(sentinels) == 0 {
		sentinels = DefaultSentinels
	}
	lower := strings.ToLower(html)
	for _, s := range sentinels {
		if strings.Contains(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// Ensure Fetcher implements gazette.Fetcher at compile time.
var _ gazette.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered listings using a headless Chrome browser.
// When the rendered page is a known interstitial, the fetch falls back
// to a plain HTTP fetcher carrying browser-like headers instead of
// returning the interstitial as valid content.
type Fetcher struct {
	src         *gazette.Source
	browser     *rod.Browser
	launch      *launcher.Launcher
	fallback    gazette.Fetcher
	elementWait time.Duration
	renderDelay time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFallback sets the HTTP fetcher used when a blocked page is
// detected. Without a fallback, a blocked page fails the fetch.
func WithFallback(f gazette.Fetcher) FetcherOption {
	return func(fe *Fetcher) { fe.fallback = f }
}

// WithElementWait bounds the wait for anchor elements to appear.
func WithElementWait(d time.Duration) FetcherOption {
	return func(fe *Fetcher) { fe.elementWait = d }
}

// WithRenderDelay sets the fixed settle delay after page load.
func WithRenderDelay(d time.Duration) FetcherOption {
	return func(fe *Fetcher) { fe.renderDelay = d }
}

// NewFetcher launches a headless Chrome browser for one source.
// Close must be called when the Fetcher is no longer needed.
func NewFetcher(src *gazette.Source, opts ...FetcherOption) (*Fetcher, error) {
	l := launcher.New().Headless(true).
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled")
	if ua, ok := src.Headers["User-Agent"]; ok {
		l = l.Set("user-agent", ua)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	f := &Fetcher{
		src:         src,
		browser:     browser,
		launch:      l,
		elementWait: DefaultElementWait,
		renderDelay: DefaultRenderDelay,
	}
	if src.Delay > 0 {
		f.renderDelay = src.Delay
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch navigates to the source's listing URL and returns the rendered
// document. All waits are bounded; the browser page is released on every
// exit path.
func (f *Fetcher) Fetch(ctx context.Context, date time.Time) (*gazette.FetchResult, error) {
	url, err := f.src.URLFor(date)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	html, err := f.render(ctx, url)
	if err != nil {
		return nil, gazette.Errorf(gazette.EUNAVAILABLE, "headless fetch %s: %v", url, err)
	}

	if IsBlockedPage(html, f.src.Sentinels) {
		if f.fallback == nil {
			return nil, gazette.Errorf(gazette.EUNAVAILABLE, "headless fetch %s: interstitial page and no fallback configured", url)
		}
		return f.fallback.Fetch(ctx, date)
	}

	return gazette.NewFetchResult(html, date), nil
}

// render loads the URL and waits for content markers, falling back to a
// fixed delay when none appear in time.
func (f *Fetcher) render(ctx context.Context, url string) (string, error) {
	page, err := f.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}

	// Wait for anchors to show up; JS-rendered listings populate them
	// late. A timeout here is not fatal: the settle delay below gives
	// slow pages one more chance.
	_, _ = page.Timeout(f.elementWait).Element("a")

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(f.renderDelay):
	}

	return page.HTML()
}

// Close releases the browser and the fallback fetcher's session.
func (f *Fetcher) Close() error {
	err := f.browser.Close()
	f.launch.Cleanup()
	if f.fallback != nil {
		if ferr := f.fallback.Close(); err == nil {
			err = ferr
		}
	}
	return err
}
