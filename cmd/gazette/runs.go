package main

import (
	"fmt"

	"github.com/fangeriz/gazette"
	"github.com/fangeriz/gazette/sqlite"
)

// Run executes the runs command.
func (c *RunsCmd) Run(deps *Dependencies) error {
	if _, ok := deps.Config.Sources[c.Country]; !ok {
		return gazette.Errorf(gazette.ENOTFOUND, "unknown source %q; run 'gazette list' to see configured sources", c.Country)
	}

	store, err := sqlite.NewPublicationService(deps.DB, c.Country)
	if err != nil {
		return err
	}

	entries, err := store.RecentExecutions(deps.Ctx, c.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(deps.Stdout, "No runs recorded for %s.\n", c.Country)
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(deps.Stdout, "%s  %-14s found=%d new=%d removed=%d  %s\n",
			e.RunAt.Format("2006-01-02 15:04"), e.Status, e.ItemsFound, e.NewItems, e.RemovedItems, e.Message)
	}
	return nil
}
