package monitor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fangeriz/gazette"
	"github.com/fangeriz/gazette/mock"
	"github.com/fangeriz/gazette/monitor"
)

var runDate = time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

func testSource() *gazette.Source {
	return &gazette.Source{
		CountryCode: "es",
		Name:        "BOE",
		URLTemplate: "https://x.test/{date_ymd}",
		Method:      gazette.FetchHTTP,
		Parser:      "boe",
	}
}

// memStore is a map-backed store used to exercise the full persist /
// baseline / log path.
type memStore struct {
	mock.PublicationStore
	records map[string][]*gazette.Record
	logs    []*gazette.ExecutionLog
	nextID  int64
}

func newMemStore() *memStore {
	s := &memStore{records: make(map[string][]*gazette.Record)}
	s.SavePublicationFn = s.save
	s.PublicationsByDateFn = s.byDate
	s.LogExecutionFn = s.logExec
	return s
}

func (s *memStore) save(ctx context.Context, item gazette.Item, date time.Time) (bool, error) {
	day := date.Format("2006-01-02")
	hash := item.ContentHash()
	for _, r := range s.records[day] {
		if r.ContentHash == hash {
			return false, nil
		}
	}
	s.nextID++
	s.records[day] = append(s.records[day], &gazette.Record{
		ID:          s.nextID,
		Date:        date,
		Title:       item.Title,
		Section:     item.Section,
		Department:  item.Department,
		Rank:        item.Rank,
		URL:         item.URL,
		ContentHash: hash,
		CreatedAt:   time.Now().UTC(),
	})
	return true, nil
}

func (s *memStore) byDate(ctx context.Context, date time.Time) ([]*gazette.Record, error) {
	return s.records[date.Format("2006-01-02")], nil
}

func (s *memStore) logExec(ctx context.Context, entry *gazette.ExecutionLog) error {
	s.logs = append(s.logs, entry)
	return nil
}

func (s *memStore) seed(date time.Time, titles ...string) {
	for _, title := range titles {
		s.save(context.Background(), gazette.Item{Title: title}, date)
	}
}

func contentFetcher(content string) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(ctx context.Context, date time.Time) (*gazette.FetchResult, error) {
			return gazette.NewFetchResult(content, date), nil
		},
	}
}

func itemExtractor(titles ...string) *mock.Extractor {
	return &mock.Extractor{
		ExtractFn: func(content string) ([]gazette.Item, error) {
			items := make([]gazette.Item, len(titles))
			for i, title := range titles {
				items[i] = gazette.Item{Title: title}
			}
			return items, nil
		},
	}
}

func TestMonitorRun(t *testing.T) {
	t.Parallel()

	t.Run("fetch failure terminates with error_download and no notification", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		notified := false

		m := &monitor.Monitor{
			Source: testSource(),
			Fetcher: &mock.Fetcher{
				FetchFn: func(ctx context.Context, date time.Time) (*gazette.FetchResult, error) {
					return nil, gazette.Errorf(gazette.EUNAVAILABLE, "HTTP 403")
				},
			},
			Extractor: itemExtractor(),
			Store:     store,
			Notifier: &mock.Notifier{NotifyFn: func(ctx context.Context, cs *gazette.ChangeSet, name string, d time.Time) error {
				notified = true
				return nil
			}},
		}

		res, err := m.Run(context.Background(), runDate)

		require.NoError(t, err)
		assert.Equal(t, gazette.StatusErrorDownload, res.Status)
		assert.False(t, notified)
		require.Len(t, store.logs, 1)
		assert.Equal(t, gazette.StatusErrorDownload, store.logs[0].Status)
		assert.Contains(t, store.logs[0].Message, "HTTP 403")
	})

	t.Run("zero extracted items terminates with no_items and no notification", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		notified := false

		m := &monitor.Monitor{
			Source:    testSource(),
			Fetcher:   contentFetcher("<html/>"),
			Extractor: itemExtractor(),
			Store:     store,
			Notifier: &mock.Notifier{NotifyFn: func(ctx context.Context, cs *gazette.ChangeSet, name string, d time.Time) error {
				notified = true
				return nil
			}},
		}

		res, err := m.Run(context.Background(), runDate)

		require.NoError(t, err)
		assert.Equal(t, gazette.StatusNoItems, res.Status)
		assert.False(t, notified)
		require.Len(t, store.logs, 1)
		assert.Equal(t, gazette.StatusNoItems, store.logs[0].Status)
	})

	t.Run("end to end: new and removed items against yesterday's baseline", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		store.seed(runDate.AddDate(0, 0, -1), "A", "B", "C", "Gone")

		var got *gazette.ChangeSet
		m := &monitor.Monitor{
			Source:    testSource(),
			Fetcher:   contentFetcher("<sumario/>"),
			Extractor: itemExtractor("A", "B", "C", "D", "E"),
			Store:     store,
			Notifier: &mock.Notifier{NotifyFn: func(ctx context.Context, cs *gazette.ChangeSet, name string, d time.Time) error {
				got = cs
				return nil
			}},
		}

		res, err := m.Run(context.Background(), runDate)

		require.NoError(t, err)
		assert.Equal(t, gazette.StatusSuccess, res.Status)
		assert.Equal(t, 5, res.ItemsFound)
		assert.Equal(t, 5, res.NewlySaved)
		assert.True(t, res.Notified)

		require.NotNil(t, got)
		assert.Len(t, got.NewItems, 2)
		assert.Len(t, got.RemovedItems, 1)
		assert.True(t, got.HasChanges())

		require.Len(t, store.logs, 1)
		assert.Equal(t, gazette.StatusSuccess, store.logs[0].Status)
		assert.Equal(t, 5, store.logs[0].ItemsFound)
		assert.Equal(t, 2, store.logs[0].NewItems)
		assert.Equal(t, 1, store.logs[0].RemovedItems)
	})

	t.Run("second run of the day falls back to prior same-day records", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		store.seed(runDate, "A", "B") // persisted by an earlier run today

		var got *gazette.ChangeSet
		m := &monitor.Monitor{
			Source:    testSource(),
			Fetcher:   contentFetcher("<sumario/>"),
			Extractor: itemExtractor("A", "B"),
			Store:     store,
			Notifier: &mock.Notifier{NotifyFn: func(ctx context.Context, cs *gazette.ChangeSet, name string, d time.Time) error {
				got = cs
				return nil
			}},
		}

		res, err := m.Run(context.Background(), runDate)

		require.NoError(t, err)
		assert.Equal(t, gazette.StatusNoChanges, res.Status)
		assert.Equal(t, 0, res.NewlySaved)
		require.NotNil(t, got)
		assert.False(t, got.HasChanges())
	})

	t.Run("very first run of a day reports everything as new", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()

		var got *gazette.ChangeSet
		m := &monitor.Monitor{
			Source:    testSource(),
			Fetcher:   contentFetcher("<sumario/>"),
			Extractor: itemExtractor("A", "B"),
			Store:     store,
			Notifier: &mock.Notifier{NotifyFn: func(ctx context.Context, cs *gazette.ChangeSet, name string, d time.Time) error {
				got = cs
				return nil
			}},
		}

		res, err := m.Run(context.Background(), runDate)

		require.NoError(t, err)
		assert.Equal(t, gazette.StatusSuccess, res.Status)
		require.NotNil(t, got)
		assert.Len(t, got.NewItems, 2)
	})

	t.Run("notification failure does not change persisted state or status", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()

		m := &monitor.Monitor{
			Source:    testSource(),
			Fetcher:   contentFetcher("<sumario/>"),
			Extractor: itemExtractor("A"),
			Store:     store,
			Notifier: &mock.Notifier{NotifyFn: func(ctx context.Context, cs *gazette.ChangeSet, name string, d time.Time) error {
				return errors.New("smtp down")
			}},
		}

		res, err := m.Run(context.Background(), runDate)

		require.NoError(t, err)
		assert.Equal(t, gazette.StatusSuccess, res.Status)
		assert.False(t, res.Notified)
		assert.Len(t, store.records[runDate.Format("2006-01-02")], 1)
		require.Len(t, store.logs, 1)
		assert.Contains(t, store.logs[0].Message, "notification failed")
	})

	t.Run("post-detection filter narrows the notified change set", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()

		var got *gazette.ChangeSet
		m := &monitor.Monitor{
			Source:    testSource(),
			Fetcher:   contentFetcher("<sumario/>"),
			Extractor: itemExtractor("Subvención de ayudas", "Nombramiento de personal"),
			Store:     store,
			Notifier: &mock.Notifier{NotifyFn: func(ctx context.Context, cs *gazette.ChangeSet, name string, d time.Time) error {
				got = cs
				return nil
			}},
			Filter: monitor.KeywordFilter("subvención"),
		}

		_, err := m.Run(context.Background(), runDate)

		require.NoError(t, err)
		require.NotNil(t, got)
		require.Len(t, got.NewItems, 1)
		assert.Equal(t, "Subvención de ayudas", got.NewItems[0].Title)
	})
}

func TestRunAll(t *testing.T) {
	t.Parallel()

	t.Run("runs monitors concurrently and keeps input order", func(t *testing.T) {
		t.Parallel()

		newMonitor := func(code string, titles ...string) *monitor.Monitor {
			src := testSource()
			src.CountryCode = code
			return &monitor.Monitor{
				Source:    src,
				Fetcher:   contentFetcher("<x/>"),
				Extractor: itemExtractor(titles...),
				Store:     newMemStore(),
				Notifier: &mock.Notifier{NotifyFn: func(ctx context.Context, cs *gazette.ChangeSet, name string, d time.Time) error {
					return nil
				}},
			}
		}

		results, err := monitor.RunAll(context.Background(),
			[]*monitor.Monitor{newMonitor("es", "A"), newMonitor("fr", "B", "C")}, runDate)

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "es", results[0].Source)
		assert.Equal(t, 1, results[0].ItemsFound)
		assert.Equal(t, "fr", results[1].Source)
		assert.Equal(t, 2, results[1].ItemsFound)
	})
}

func TestKeywordFilter(t *testing.T) {
	t.Parallel()

	t.Run("matches any text field case-insensitively", func(t *testing.T) {
		t.Parallel()

		keep := monitor.KeywordFilter("hacienda")

		assert.True(t, keep(gazette.Item{Title: "Orden", Department: "Ministerio de HACIENDA"}))
		assert.False(t, keep(gazette.Item{Title: "Orden", Department: "Justicia"}))
	})

	t.Run("no keywords keeps everything", func(t *testing.T) {
		t.Parallel()

		keep := monitor.KeywordFilter()
		assert.True(t, keep(gazette.Item{Title: "anything"}))
	})
}
