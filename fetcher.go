package gazette

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/cespare/xxhash/v2"
)

// FetchResult holds the raw content retrieved for one source and date.
type FetchResult struct {
	// Content is the raw response body or rendered document.
	Content string

	// Hash is an xxHash digest of the raw content, used only to detect
	// identical re-fetches. It plays no part in item deduplication.
	Hash string

	// Date is the gazette date the content was fetched for.
	Date time.Time

	// FetchedAt is when the content was retrieved.
	FetchedAt time.Time
}

// NewFetchResult wraps raw content with its fetch metadata.
func NewFetchResult(content string, date time.Time) *FetchResult {
	sum := xxhash.Sum64String(content)
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(sum >> (56 - 8*i))
	}
	return &FetchResult{
		Content:   content,
		Hash:      hex.EncodeToString(b[:]),
		Date:      date,
		FetchedAt: time.Now().UTC(),
	}
}

// Fetcher retrieves a source's raw daily listing. A Fetcher owns its own
// transport session (cookies, connections, browser process) scoped to one
// source; sessions are not shared across sources or runs.
//
// Failure is always returned as an error value classified with an
// application error code (EUNAVAILABLE, ETIMEOUT, EINVALID), never as a
// panic; the caller decides whether to log and terminate the run.
type Fetcher interface {
	// Fetch retrieves the listing for the given date. The context bounds
	// the whole operation including retries.
	Fetch(ctx context.Context, date time.Time) (*FetchResult, error)

	// Close releases transport resources. Must be called on every exit
	// path once the Fetcher is no longer needed.
	Close() error
}
