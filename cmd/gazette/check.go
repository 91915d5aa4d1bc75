package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fangeriz/gazette"
	"github.com/fangeriz/gazette/monitor"
)

// Run executes the check command for a single source.
func (c *CheckCmd) Run(deps *Dependencies) error {
	sc, ok := deps.Config.Sources[c.Country]
	if !ok {
		return gazette.Errorf(gazette.ENOTFOUND, "unknown source %q; run 'gazette list' to see configured sources", c.Country)
	}

	date, err := parseDate(c.Date)
	if err != nil {
		return err
	}

	mon, err := newMonitor(deps, c.Country, sc, c.DryRun, c.Keywords)
	if err != nil {
		return err
	}
	defer mon.Fetcher.Close()

	res, err := mon.Run(deps.Ctx, date)
	if err != nil {
		return err
	}
	printResult(deps.Stdout, res)
	return nil
}

// Run executes the run command across all configured sources.
func (c *RunCmd) Run(deps *Dependencies) error {
	date, err := parseDate(c.Date)
	if err != nil {
		return err
	}

	codes := make([]string, 0, len(deps.Config.Sources))
	for code := range deps.Config.Sources {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	monitors := make([]*monitor.Monitor, 0, len(codes))
	for _, code := range codes {
		mon, err := newMonitor(deps, code, deps.Config.Sources[code], c.DryRun, nil)
		if err != nil {
			for _, m := range monitors {
				m.Fetcher.Close()
			}
			return err
		}
		monitors = append(monitors, mon)
	}
	defer func() {
		for _, m := range monitors {
			m.Fetcher.Close()
		}
	}()

	results, err := monitor.RunAll(deps.Ctx, monitors, date)
	for _, res := range results {
		if res != nil {
			printResult(deps.Stdout, res)
		}
	}
	return err
}

func printResult(w io.Writer, res *monitor.RunResult) {
	fmt.Fprintf(w, "%s: %s (%d items", res.Source, res.Status, res.ItemsFound)
	if res.Changes != nil {
		fmt.Fprintf(w, ", %d new, %d removed", len(res.Changes.NewItems), len(res.Changes.RemovedItems))
	}
	fmt.Fprintln(w, ")")
}

// parseDate interprets the --date flag; empty means today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, gazette.Errorf(gazette.EINVALID, "invalid date %q: expected YYYY-MM-DD", s)
	}
	return date, nil
}

// writerNotifier prints the change set instead of delivering it. Used by
// the --dry-run flag.
type writerNotifier struct {
	w io.Writer
}

var _ gazette.Notifier = (*writerNotifier)(nil)

func (n *writerNotifier) Notify(ctx context.Context, changes *gazette.ChangeSet, sourceName string, runDate time.Time) error {
	if !changes.HasChanges() {
		fmt.Fprintf(n.w, "%s %s: no changes\n", sourceName, runDate.Format("2006-01-02"))
		return nil
	}
	for _, it := range changes.NewItems {
		fmt.Fprintf(n.w, "+ %s\n", it.Title)
	}
	for _, it := range changes.RemovedItems {
		fmt.Fprintf(n.w, "- %s\n", it.Title)
	}
	return nil
}
