package gazette

import (
	"context"
	"time"
)

// Status is the terminal state of one monitoring run.
type Status string

// Run statuses recorded in the execution log.
const (
	// StatusSuccess means the run persisted at least one new record.
	StatusSuccess Status = "success"

	// StatusNoChanges means the run completed but found nothing new.
	StatusNoChanges Status = "no_changes"

	// StatusNoItems means the listing was fetched but extraction
	// yielded zero items.
	StatusNoItems Status = "no_items"

	// StatusErrorDownload means the fetch failed after exhausting
	// retries.
	StatusErrorDownload Status = "error_download"
)

// ExecutionLog is one append-only audit record summarizing a run.
// Exactly one entry is written per run, regardless of which terminal
// path the run took.
type ExecutionLog struct {
	ID           string    `json:"id"`
	RunAt        time.Time `json:"runAt"`
	Status       Status    `json:"status"`
	ItemsFound   int       `json:"itemsFound"`
	NewItems     int       `json:"newItems"`
	RemovedItems int       `json:"removedItems"`
	Message      string    `json:"message"`
}

// PublicationStore is the idempotent persistence gateway for one source.
// A store owns the sole database handle for that source; the handle is
// acquired lazily and the store auto-reconnects on a dropped connection
// before each operation.
type PublicationStore interface {
	// SavePublication persists an item for a date. It returns true iff a
	// new record was inserted. Saving an item whose (date, content hash)
	// key already exists returns false with a nil error: the resulting
	// unique-constraint conflict means "already exists", not failure.
	SavePublication(ctx context.Context, item Item, date time.Time) (bool, error)

	// PublicationsByDate returns all persisted records for a date,
	// newest first.
	PublicationsByDate(ctx context.Context, date time.Time) ([]*Record, error)

	// LogExecution appends one audit record. The store assigns the ID.
	LogExecution(ctx context.Context, entry *ExecutionLog) error

	// RecentExecutions returns the latest audit records, newest first.
	RecentExecutions(ctx context.Context, limit int) ([]*ExecutionLog, error)

	// Close releases the database handle.
	Close() error
}
