// Package monitor orchestrates one gazette monitoring run: fetch,
// extract, persist, baseline selection, change detection, notification,
// and execution logging.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fangeriz/gazette"
)

// FilterFunc is a post-detection hook: a predicate over change-set
// items. Items for which it returns false are removed from the change
// set before notification. It replaces subclass-style overriding of the
// pipeline with plain composition.
type FilterFunc func(item gazette.Item) bool

// KeywordFilter returns a FilterFunc that keeps only items whose text
// fields contain at least one of the given keywords, case-insensitively.
// With no keywords, everything passes.
func KeywordFilter(keywords ...string) FilterFunc {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return func(it gazette.Item) bool {
		if len(lowered) == 0 {
			return true
		}
		text := strings.ToLower(strings.Join([]string{it.Title, it.Section, it.Department, it.Rank}, " "))
		for _, k := range lowered {
			if strings.Contains(text, k) {
				return true
			}
		}
		return false
	}
}

// Monitor runs the monitoring pipeline for one source. Each Monitor
// owns its fetcher session and its store handle; monitors for different
// sources share no mutable state and may run concurrently.
type Monitor struct {
	Source    *gazette.Source
	Fetcher   gazette.Fetcher
	Extractor gazette.Extractor
	Store     gazette.PublicationStore
	Notifier  gazette.Notifier

	// Filter, if set, is applied to the change set after detection.
	Filter FilterFunc
}

// RunResult summarizes one completed run.
type RunResult struct {
	Source     string
	Status     gazette.Status
	ItemsFound int
	NewlySaved int
	Changes    *gazette.ChangeSet
	Notified   bool
}

// Run executes the pipeline for the given gazette date. Pipeline-terminal
// outcomes (download failure, empty extraction) are reported in the
// result's status, not as errors; the returned error is reserved for
// infrastructure failures such as an unreachable store. Exactly one
// execution log entry is written per run regardless of the path taken.
func (m *Monitor) Run(ctx context.Context, date time.Time) (*RunResult, error) {
	res := &RunResult{Source: m.Source.CountryCode}

	// FETCH
	fetched, err := m.Fetcher.Fetch(ctx, date)
	if err != nil {
		res.Status = gazette.StatusErrorDownload
		if logErr := m.Store.LogExecution(ctx, &gazette.ExecutionLog{
			Status:  gazette.StatusErrorDownload,
			Message: gazette.ErrorMessage(err),
		}); logErr != nil {
			return res, logErr
		}
		return res, nil
	}

	// EXTRACT
	items, err := m.Extractor.Extract(fetched.Content)
	if err != nil || len(items) == 0 {
		res.Status = gazette.StatusNoItems
		msg := "No items found in content"
		if err != nil {
			msg = fmt.Sprintf("Extraction failed: %s", gazette.ErrorMessage(err))
		}
		if logErr := m.Store.LogExecution(ctx, &gazette.ExecutionLog{
			Status:  gazette.StatusNoItems,
			Message: msg,
		}); logErr != nil {
			return res, logErr
		}
		return res, nil
	}
	res.ItemsFound = len(items)

	// PERSIST. Per-item save failures degrade gracefully: the item is
	// skipped and the run still reaches the logging state.
	savedHashes := make(map[string]struct{})
	var persistErr error
	for _, item := range items {
		saved, err := m.Store.SavePublication(ctx, item, date)
		if err != nil {
			persistErr = err
			continue
		}
		if saved {
			savedHashes[item.ContentHash()] = struct{}{}
		}
	}
	res.NewlySaved = len(savedHashes)

	// BASELINE: yesterday's records, or — so a second invocation on the
	// same day is not spuriously "all new" — the records that already
	// existed for today before this run persisted anything.
	baseline, err := m.baseline(ctx, date, savedHashes)
	if err != nil {
		return res, err
	}

	// DETECT
	changes := gazette.Compare(items, baseline)
	if m.Filter != nil {
		changes = filterChanges(changes, m.Filter)
	}
	res.Changes = changes

	// NOTIFY: always, so recipients can tell "novelties found" from
	// "checked, nothing new". Delivery failure never affects persisted
	// state or the logged status.
	var notifyMsg string
	if err := m.Notifier.Notify(ctx, changes, m.Source.Name, date); err != nil {
		notifyMsg = fmt.Sprintf("; notification failed: %s", gazette.ErrorMessage(err))
	} else {
		res.Notified = true
	}

	// LOGGED
	res.Status = gazette.StatusNoChanges
	if res.NewlySaved > 0 {
		res.Status = gazette.StatusSuccess
	}
	msg := "Check completed"
	if persistErr != nil {
		msg = fmt.Sprintf("Check completed with save errors: %s", gazette.ErrorMessage(persistErr))
	}
	if logErr := m.Store.LogExecution(ctx, &gazette.ExecutionLog{
		Status:       res.Status,
		ItemsFound:   res.ItemsFound,
		NewItems:     len(changes.NewItems),
		RemovedItems: len(changes.RemovedItems),
		Message:      msg + notifyMsg,
	}); logErr != nil {
		return res, logErr
	}
	return res, nil
}

// baseline loads the comparison baseline: yesterday's records, falling
// back to today's records that predate this run.
func (m *Monitor) baseline(ctx context.Context, date time.Time, savedThisRun map[string]struct{}) ([]gazette.Item, error) {
	yesterday, err := m.Store.PublicationsByDate(ctx, date.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	if len(yesterday) > 0 {
		return gazette.Items(yesterday), nil
	}

	today, err := m.Store.PublicationsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	var prior []gazette.Item
	for _, r := range today {
		if _, ok := savedThisRun[r.ContentHash]; ok {
			continue
		}
		prior = append(prior, r.Item())
	}
	return prior, nil
}

// filterChanges applies the post-detection predicate to both sides of a
// change set.
func filterChanges(cs *gazette.ChangeSet, keep FilterFunc) *gazette.ChangeSet {
	filtered := &gazette.ChangeSet{
		TotalToday:    cs.TotalToday,
		TotalBaseline: cs.TotalBaseline,
	}
	for _, it := range cs.NewItems {
		if keep(it) {
			filtered.NewItems = append(filtered.NewItems, it)
		}
	}
	for _, it := range cs.RemovedItems {
		if keep(it) {
			filtered.RemovedItems = append(filtered.RemovedItems, it)
		}
	}
	return filtered
}

// RunAll executes independent monitors concurrently, one goroutine per
// source. Results are returned in input order; the first infrastructure
// error cancels the remaining runs.
func RunAll(ctx context.Context, monitors []*Monitor, date time.Time) ([]*RunResult, error) {
	results := make([]*RunResult, len(monitors))

	g, ctx := errgroup.WithContext(ctx)
	for i, m := range monitors {
		g.Go(func() error {
			res, err := m.Run(ctx, date)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
