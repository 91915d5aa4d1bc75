package gazette

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Item is one extracted publication entry. Items are ephemeral: they
// exist only in memory for the duration of one run, until persisted or
// discarded.
type Item struct {
	Title      string
	Section    string
	Department string
	Rank       string
	URL        string
}

// Validate returns an error if the item cannot be persisted.
func (it Item) Validate() error {
	if it.Title == "" {
		return Errorf(EINVALID, "publication title required")
	}
	return nil
}

// ContentHash returns the item's content identity hash: a hex-encoded
// SHA-256 digest over the normalized title, section, and department.
// Together with the publication date it forms the dedup key. Hashing the
// normalized fields rather than the raw title makes the key robust to
// incidental formatting churn in the source markup.
func (it Item) ContentHash() string {
	h := sha256.Sum256([]byte(Normalize(it.Title) + Normalize(it.Section) + Normalize(it.Department)))
	return hex.EncodeToString(h[:])
}

// Record is a persisted publication. Records are created on first
// successful save, never mutated, and never deleted. The pair
// (Date, ContentHash) is unique per source.
type Record struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	Title       string    `json:"title"`
	Section     string    `json:"section"`
	Department  string    `json:"department"`
	Rank        string    `json:"rank"`
	URL         string    `json:"url"`
	ContentHash string    `json:"contentHash"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Item returns the record's fields as an in-memory item, for use as
// change-detection baseline input.
func (r *Record) Item() Item {
	return Item{
		Title:      r.Title,
		Section:    r.Section,
		Department: r.Department,
		Rank:       r.Rank,
		URL:        r.URL,
	}
}

// Items converts a slice of records to items.
func Items(records []*Record) []Item {
	items := make([]Item, len(records))
	for i, r := range records {
		items[i] = r.Item()
	}
	return items
}
