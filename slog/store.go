package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fangeriz/gazette"
)

// Ensure LoggingPublicationStore implements gazette.PublicationStore.
var _ gazette.PublicationStore = (*LoggingPublicationStore)(nil)

// LoggingPublicationStore wraps a PublicationStore with logging. Reads
// delegate silently; writes and log appends are recorded.
type LoggingPublicationStore struct {
	next   gazette.PublicationStore
	source string
	logger *slog.Logger
}

// NewLoggingPublicationStore creates a new LoggingPublicationStore.
func NewLoggingPublicationStore(next gazette.PublicationStore, source string, logger *slog.Logger) *LoggingPublicationStore {
	return &LoggingPublicationStore{next: next, source: source, logger: logger}
}

// SavePublication delegates to the wrapped store and logs the outcome at
// debug level; only failures are worth the info channel here.
func (s *LoggingPublicationStore) SavePublication(ctx context.Context, item gazette.Item, date time.Time) (saved bool, err error) {
	defer func() {
		if err != nil {
			s.logger.Error("save publication",
				"source", s.source,
				"title", item.Title,
				"err", err,
			)
			return
		}
		s.logger.Debug("save publication",
			"source", s.source,
			"title", item.Title,
			"saved", saved,
		)
	}()
	return s.next.SavePublication(ctx, item, date)
}

// PublicationsByDate delegates to the wrapped store.
func (s *LoggingPublicationStore) PublicationsByDate(ctx context.Context, date time.Time) ([]*gazette.Record, error) {
	return s.next.PublicationsByDate(ctx, date)
}

// LogExecution delegates to the wrapped store and logs the run summary.
func (s *LoggingPublicationStore) LogExecution(ctx context.Context, entry *gazette.ExecutionLog) (err error) {
	defer func() {
		s.logger.Info("run logged",
			"source", s.source,
			"status", string(entry.Status),
			"items_found", entry.ItemsFound,
			"new_items", entry.NewItems,
			"removed_items", entry.RemovedItems,
			"err", err,
		)
	}()
	return s.next.LogExecution(ctx, entry)
}

// RecentExecutions delegates to the wrapped store.
func (s *LoggingPublicationStore) RecentExecutions(ctx context.Context, limit int) ([]*gazette.ExecutionLog, error) {
	return s.next.RecentExecutions(ctx, limit)
}

// Close delegates to the wrapped store.
func (s *LoggingPublicationStore) Close() error {
	return s.next.Close()
}
