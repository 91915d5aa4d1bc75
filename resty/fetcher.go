// Package resty provides HTTP-based implementations of gazette.Fetcher
// built on the resty client: a direct GET strategy and a two-step API
// strategy for sources that hide their listing behind an edition-id
// lookup. Each fetcher owns a cookie-jar session scoped to one source.
package resty

import (
	"context"
	"crypto/tls"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/fangeriz/gazette"
)

// DefaultTimeout bounds a single request when the source does not
// configure its own.
const DefaultTimeout = 30 * time.Second

// Backoff returns the delay before retry attempt n (1-based, counting
// the attempt that just failed).
type Backoff func(attempt int) time.Duration

// LinearBackoff grows the delay by base per failed attempt: base, 2×base,
// 3×base, and so on.
func LinearBackoff(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// Ensure Fetcher implements gazette.Fetcher at compile time.
var _ gazette.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves a source's listing with a single GET per attempt,
// retrying on transient failures. It is suitable for sources that serve
// their listing without JavaScript rendering.
type Fetcher struct {
	src     *gazette.Source
	client  *resty.Client
	limiter *rate.Limiter
	backoff Backoff
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBackoff overrides the retry backoff function. The default grows
// linearly from one second per failed attempt.
func WithBackoff(b Backoff) Option {
	return func(f *Fetcher) { f.backoff = b }
}

// WithBrowserHeaders routes requests through a transport that mimics a
// real browser's header order and user agent. Used as the fallback
// transport when the headless strategy detects a blocked page.
func WithBrowserHeaders() Option {
	return func(f *Fetcher) {
		f.client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(f.client.GetClient().Transport)
	}
}

// NewFetcher creates a Fetcher for one source. The session (cookies,
// connections) belongs to this instance and is not shared across sources
// or runs.
func NewFetcher(src *gazette.Source, opts ...Option) (*Fetcher, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeaders(src.Headers)

	timeout := src.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client.SetTimeout(timeout)

	if !src.VerifySSL {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	f := &Fetcher{
		src:     src,
		client:  client,
		backoff: LinearBackoff(time.Second),
	}
	if src.Delay > 0 {
		f.limiter = rate.NewLimiter(rate.Every(src.Delay), 1)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch retrieves the listing for the given date.
func (f *Fetcher) Fetch(ctx context.Context, date time.Time) (*gazette.FetchResult, error) {
	url, err := f.src.URLFor(date)
	if err != nil {
		return nil, err
	}

	content, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return gazette.NewFetchResult(content, date), nil
}

// get performs the bounded retry loop around a single URL. Only
// rate-limit and server-side failures (403, 429, 5xx) and transport
// errors are retried; any other non-200 status fails immediately.
func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	maxAttempts := f.src.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = gazette.DefaultMaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		resp, err := f.client.R().SetContext(ctx).Get(url)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return "", gazette.Errorf(gazette.ETIMEOUT, "fetch %s: %v", url, err)
			}
			lastErr = gazette.Errorf(gazette.EUNAVAILABLE, "fetch %s: %v", url, err)
		case resp.StatusCode() == 200:
			return resp.String(), nil
		case retryable(resp.StatusCode()):
			lastErr = gazette.Errorf(gazette.EUNAVAILABLE, "fetch %s: HTTP %d", url, resp.StatusCode())
		default:
			return "", gazette.Errorf(gazette.EUNAVAILABLE, "fetch %s: HTTP %d", url, resp.StatusCode())
		}

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.backoff(attempt)):
		}
	}
	return "", gazette.Errorf(gazette.EUNAVAILABLE, "fetch %s: giving up after %d attempts: %s",
		url, maxAttempts, gazette.ErrorMessage(lastErr))
}

// retryable reports whether an HTTP status is worth another attempt.
func retryable(status int) bool {
	return status == 403 || status == 429 || status >= 500
}

// Close releases the session. The underlying transport needs no explicit
// cleanup; idle connections are closed to be polite.
func (f *Fetcher) Close() error {
	f.client.GetClient().CloseIdleConnections()
	return nil
}
