package sqlite

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/fangeriz/gazette"
	"github.com/fangeriz/gazette/bloom"
)

// dateLayout is how publication dates are stored.
const dateLayout = "2006-01-02"

// codeRE restricts country codes used in table names.
var codeRE = regexp.MustCompile(`^[a-z]{2,3}$`)

// Compile-time interface verification.
var _ gazette.PublicationStore = (*PublicationService)(nil)

// PublicationService implements gazette.PublicationStore using SQLite.
// Tables are provisioned per source (publications_<code>,
// executions_<code>) on first use; records are append-only.
type PublicationService struct {
	db     *DB
	pubs   string // publications table name
	execs  string // executions table name
	seen   *bloom.Filter
	schema bool // tables provisioned
}

// NewPublicationService creates a store for one source. The database
// handle is acquired lazily on the first operation.
func NewPublicationService(db *DB, countryCode string) (*PublicationService, error) {
	if !codeRE.MatchString(countryCode) {
		return nil, gazette.Errorf(gazette.EINVALID, "invalid country code %q", countryCode)
	}
	return &PublicationService{
		db:    db,
		pubs:  "publications_" + countryCode,
		execs: "executions_" + countryCode,
		seen:  bloom.NewFilter(100000, 0.001),
	}, nil
}

// ensureSchema creates the per-source tables if they don't exist.
func (s *PublicationService) ensureSchema(ctx context.Context) error {
	if s.schema {
		return nil
	}
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			title TEXT NOT NULL,
			section TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			rank TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE (date, content_hash)
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_date ON %[1]s(date);

		CREATE TABLE IF NOT EXISTS %[2]s (
			id TEXT PRIMARY KEY,
			run_at TEXT NOT NULL,
			status TEXT NOT NULL,
			items_found INTEGER NOT NULL,
			new_items INTEGER NOT NULL,
			removed_items INTEGER NOT NULL,
			message TEXT NOT NULL DEFAULT ''
		);
	`, s.pubs, s.execs)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.schema = true
	return nil
}

// SavePublication persists an item for a date, returning true iff a new
// record was inserted. The (date, content hash) unique constraint makes
// the call idempotent: a conflicting insert means "already exists" and
// returns false with a nil error.
func (s *PublicationService) SavePublication(ctx context.Context, item gazette.Item, date time.Time) (bool, error) {
	if err := item.Validate(); err != nil {
		return false, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return false, err
	}

	day := date.Format(dateLayout)
	hash := item.ContentHash()
	key := day + "|" + hash

	// A negative filter test proves the key was never saved by this
	// process; positives still go to the database, which is the source
	// of truth.
	if s.seen.Test(key) {
		row, err := s.db.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE date = ? AND content_hash = ?`, s.pubs),
			day, hash)
		if err != nil {
			return false, err
		}
		var n int
		if err := row.Scan(&n); err != nil {
			return false, err
		}
		if n > 0 {
			return false, nil
		}
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (date, title, section, department, rank, url, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (date, content_hash) DO NOTHING
	`, s.pubs), day, item.Title, item.Section, item.Department, item.Rank, item.URL,
		hash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, err
	}
	s.seen.Add(key)

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// PublicationsByDate returns all persisted records for a date, newest
// first.
func (s *PublicationService) PublicationsByDate(ctx context.Context, date time.Time) ([]*gazette.Record, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, date, title, section, department, rank, url, content_hash, created_at
		FROM %s
		WHERE date = ?
		ORDER BY id DESC
	`, s.pubs), date.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*gazette.Record
	for rows.Next() {
		var r gazette.Record
		var day, createdAt string
		if err := rows.Scan(&r.ID, &day, &r.Title, &r.Section, &r.Department, &r.Rank,
			&r.URL, &r.ContentHash, &createdAt); err != nil {
			return nil, err
		}
		if r.Date, err = time.Parse(dateLayout, day); err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// LogExecution appends one audit record, assigning its ID.
func (s *PublicationService) LogExecution(ctx context.Context, entry *gazette.ExecutionLog) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	entry.ID = uuid.New().String()
	if entry.RunAt.IsZero() {
		entry.RunAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, run_at, status, items_found, new_items, removed_items, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.execs), entry.ID, entry.RunAt.Format(time.RFC3339), string(entry.Status),
		entry.ItemsFound, entry.NewItems, entry.RemovedItems, entry.Message)
	return err
}

// RecentExecutions returns the latest audit records, newest first.
func (s *PublicationService) RecentExecutions(ctx context.Context, limit int) ([]*gazette.ExecutionLog, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, run_at, status, items_found, new_items, removed_items, message
		FROM %s
		ORDER BY run_at DESC
		LIMIT ?
	`, s.execs), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*gazette.ExecutionLog
	for rows.Next() {
		var e gazette.ExecutionLog
		var runAt, status string
		if err := rows.Scan(&e.ID, &runAt, &status, &e.ItemsFound, &e.NewItems,
			&e.RemovedItems, &e.Message); err != nil {
			return nil, err
		}
		if e.RunAt, err = time.Parse(time.RFC3339, runAt); err != nil {
			return nil, fmt.Errorf("failed to parse run_at: %w", err)
		}
		e.Status = gazette.Status(status)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (s *PublicationService) Close() error {
	return s.db.Close()
}
