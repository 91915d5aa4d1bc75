package resty

import (
	"context"
	"regexp"
	"time"

	"github.com/fangeriz/gazette"
)

// TwoStepConfig describes a landing-page + query-endpoint fetch: the
// landing page is fetched first, an identifier is extracted from it with
// a fixed pattern, and the identifier is posted to a secondary endpoint
// whose response body becomes the listing content.
type TwoStepConfig struct {
	// IDPattern is a regular expression with exactly one capture group
	// that extracts the identifier from the landing page.
	IDPattern string

	// QueryURL is the secondary endpoint receiving the form POST.
	QueryURL string

	// Form builds the POST payload for an extracted identifier.
	Form func(id string) map[string]string

	// Headers are extra headers for the POST only (e.g. the
	// X-Requested-With marker some endpoints require).
	Headers map[string]string
}

// Validate returns an error if the two-step configuration is unusable.
func (c *TwoStepConfig) Validate() error {
	if c.IDPattern == "" {
		return gazette.Errorf(gazette.EINVALID, "two-step fetch: id pattern required")
	}
	if c.QueryURL == "" {
		return gazette.Errorf(gazette.EINVALID, "two-step fetch: query URL required")
	}
	if c.Form == nil {
		return gazette.Errorf(gazette.EINVALID, "two-step fetch: form builder required")
	}
	return nil
}

// Ensure TwoStepFetcher implements gazette.Fetcher at compile time.
var _ gazette.Fetcher = (*TwoStepFetcher)(nil)

// TwoStepFetcher implements the two-step API fetch strategy. It shares
// the session of an inner Fetcher so cookies set by the landing page are
// presented to the query endpoint.
type TwoStepFetcher struct {
	inner     *Fetcher
	cfg       TwoStepConfig
	idPattern *regexp.Regexp
}

// NewTwoStepFetcher creates a TwoStepFetcher for one source.
func NewTwoStepFetcher(src *gazette.Source, cfg TwoStepConfig, opts ...Option) (*TwoStepFetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(cfg.IDPattern)
	if err != nil {
		return nil, gazette.Errorf(gazette.EINVALID, "two-step fetch: invalid id pattern: %v", err)
	}
	inner, err := NewFetcher(src, opts...)
	if err != nil {
		return nil, err
	}
	return &TwoStepFetcher{inner: inner, cfg: cfg, idPattern: re}, nil
}

// Fetch retrieves the landing page, extracts the edition identifier, and
// posts the query payload. A landing page without the identifier fails
// the fetch; there is nothing to retry because the page itself was
// served successfully.
func (f *TwoStepFetcher) Fetch(ctx context.Context, date time.Time) (*gazette.FetchResult, error) {
	url, err := f.inner.src.URLFor(date)
	if err != nil {
		return nil, err
	}

	landing, err := f.inner.get(ctx, url)
	if err != nil {
		return nil, err
	}

	m := f.idPattern.FindStringSubmatch(landing)
	if len(m) < 2 {
		return nil, gazette.Errorf(gazette.EUNAVAILABLE, "fetch %s: edition identifier not found in landing page", url)
	}
	id := m[1]

	resp, err := f.inner.client.R().
		SetContext(ctx).
		SetHeaders(f.cfg.Headers).
		SetFormData(f.cfg.Form(id)).
		Post(f.cfg.QueryURL)
	if err != nil {
		return nil, gazette.Errorf(gazette.EUNAVAILABLE, "query %s: %v", f.cfg.QueryURL, err)
	}
	if resp.StatusCode() != 200 {
		return nil, gazette.Errorf(gazette.EUNAVAILABLE, "query %s: HTTP %d", f.cfg.QueryURL, resp.StatusCode())
	}

	return gazette.NewFetchResult(resp.String(), date), nil
}

// Close releases the shared session.
func (f *TwoStepFetcher) Close() error {
	return f.inner.Close()
}
