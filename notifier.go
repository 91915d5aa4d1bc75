package gazette

import (
	"context"
	"time"
)

// Notifier delivers the outcome of a run. It is invoked on every run
// that reaches change detection, with either a change set that has new
// items or an empty one, so recipients can distinguish "novelties found"
// from "checked, nothing new".
//
// A delivery failure is logged by the caller and never affects persisted
// records or the run's logged status.
type Notifier interface {
	Notify(ctx context.Context, changes *ChangeSet, sourceName string, runDate time.Time) error
}
