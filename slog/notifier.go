package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fangeriz/gazette"
)

// Ensure LoggingNotifier implements gazette.Notifier.
var _ gazette.Notifier = (*LoggingNotifier)(nil)

// LoggingNotifier wraps a Notifier with logging.
type LoggingNotifier struct {
	next   gazette.Notifier
	logger *slog.Logger
}

// NewLoggingNotifier creates a new LoggingNotifier.
func NewLoggingNotifier(next gazette.Notifier, logger *slog.Logger) *LoggingNotifier {
	return &LoggingNotifier{next: next, logger: logger}
}

// Notify delegates to the wrapped notifier and logs the operation.
func (n *LoggingNotifier) Notify(ctx context.Context, changes *gazette.ChangeSet, sourceName string, runDate time.Time) (err error) {
	defer func(begin time.Time) {
		n.logger.Info("notify",
			"source", sourceName,
			"new_items", len(changes.NewItems),
			"removed_items", len(changes.RemovedItems),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return n.next.Notify(ctx, changes, sourceName, runDate)
}
