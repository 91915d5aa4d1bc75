// Package slog provides logging decorators for the gazette domain
// interfaces, built on the standard library's structured logger.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fangeriz/gazette"
)

// Ensure LoggingFetcher implements gazette.Fetcher.
var _ gazette.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   gazette.Fetcher
	source string
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next gazette.Fetcher, source string, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, source: source, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the operation.
func (f *LoggingFetcher) Fetch(ctx context.Context, date time.Time) (res *gazette.FetchResult, err error) {
	defer func(begin time.Time) {
		var bytes int
		if res != nil {
			bytes = len(res.Content)
		}
		f.logger.Info("fetch",
			"source", f.source,
			"date", date.Format("2006-01-02"),
			"bytes", bytes,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, date)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
