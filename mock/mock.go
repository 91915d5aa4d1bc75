// Package mock provides function-field test doubles for the gazette
// domain interfaces.
package mock

import (
	"context"
	"time"

	"github.com/fangeriz/gazette"
)

var _ gazette.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of gazette.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, date time.Time) (*gazette.FetchResult, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, date time.Time) (*gazette.FetchResult, error) {
	return f.FetchFn(ctx, date)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

var _ gazette.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of gazette.Extractor.
type Extractor struct {
	ExtractFn func(content string) ([]gazette.Item, error)
}

func (e *Extractor) Extract(content string) ([]gazette.Item, error) {
	return e.ExtractFn(content)
}

var _ gazette.PublicationStore = (*PublicationStore)(nil)

// PublicationStore is a mock implementation of gazette.PublicationStore.
type PublicationStore struct {
	SavePublicationFn    func(ctx context.Context, item gazette.Item, date time.Time) (bool, error)
	PublicationsByDateFn func(ctx context.Context, date time.Time) ([]*gazette.Record, error)
	LogExecutionFn       func(ctx context.Context, entry *gazette.ExecutionLog) error
	RecentExecutionsFn   func(ctx context.Context, limit int) ([]*gazette.ExecutionLog, error)
	CloseFn              func() error
}

func (s *PublicationStore) SavePublication(ctx context.Context, item gazette.Item, date time.Time) (bool, error) {
	return s.SavePublicationFn(ctx, item, date)
}

func (s *PublicationStore) PublicationsByDate(ctx context.Context, date time.Time) ([]*gazette.Record, error) {
	return s.PublicationsByDateFn(ctx, date)
}

func (s *PublicationStore) LogExecution(ctx context.Context, entry *gazette.ExecutionLog) error {
	return s.LogExecutionFn(ctx, entry)
}

func (s *PublicationStore) RecentExecutions(ctx context.Context, limit int) ([]*gazette.ExecutionLog, error) {
	return s.RecentExecutionsFn(ctx, limit)
}

func (s *PublicationStore) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

var _ gazette.Notifier = (*Notifier)(nil)

// Notifier is a mock implementation of gazette.Notifier.
type Notifier struct {
	NotifyFn func(ctx context.Context, changes *gazette.ChangeSet, sourceName string, runDate time.Time) error
}

func (n *Notifier) Notify(ctx context.Context, changes *gazette.ChangeSet, sourceName string, runDate time.Time) error {
	return n.NotifyFn(ctx, changes, sourceName, runDate)
}
