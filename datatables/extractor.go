// Package datatables provides a gazette.Extractor for DataTables
// server-side JSON responses (the draw/recordsTotal/data envelope used
// by the Kuwait Al-Yawm listing endpoint, among others).
package datatables

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fangeriz/gazette"
)

// FieldMap names the row fields each item field is read from. URLTemplate
// may reference any row field as a {Name} placeholder, e.g.
// "/flip?id={EditionID_FK}&no={FromPage}".
type FieldMap struct {
	Title       string
	Section     string
	Department  string
	Rank        string
	URLTemplate string
}

// Validate returns an error if the mapping cannot drive extraction.
func (m FieldMap) Validate() error {
	if m.Title == "" {
		return gazette.Errorf(gazette.EINVALID, "datatables extractor: title field required")
	}
	return nil
}

// envelope is the subset of the DataTables response we read.
type envelope struct {
	Data []map[string]any `json:"data"`
}

// Ensure Extractor implements gazette.Extractor at compile time.
var _ gazette.Extractor = (*Extractor)(nil)

// Extractor turns a DataTables JSON response into publication items.
type Extractor struct {
	base   string
	fields FieldMap
}

// NewExtractor creates an extractor reading the given row fields,
// resolving relative URLs against the source's base URL.
func NewExtractor(src *gazette.Source, fields FieldMap) (gazette.Extractor, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{base: src.BaseURL, fields: fields}, nil
}

// placeholderRE matches a {FieldName} placeholder in the URL template.
var placeholderRE = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Extract decodes the response envelope and maps each row to an item.
// Rows without a title are skipped; a body that is not valid JSON yields
// an empty result, not an error.
func (e *Extractor) Extract(content string) ([]gazette.Item, error) {
	var env envelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return nil, nil
	}

	var items []gazette.Item
	for _, row := range env.Data {
		title := strings.TrimSpace(rowString(row, e.fields.Title))
		if title == "" {
			continue
		}
		items = append(items, gazette.Item{
			Title:      title,
			Section:    rowString(row, e.fields.Section),
			Department: rowString(row, e.fields.Department),
			Rank:       rowString(row, e.fields.Rank),
			URL:        gazette.JoinURL(e.base, e.rowURL(row)),
		})
	}
	return items, nil
}

// rowURL expands the URL template's placeholders with row values.
func (e *Extractor) rowURL(row map[string]any) string {
	if e.fields.URLTemplate == "" {
		return ""
	}
	return placeholderRE.ReplaceAllStringFunc(e.fields.URLTemplate, func(m string) string {
		return rowString(row, m[1:len(m)-1])
	})
}

// rowString renders a row value as a string. JSON numbers arrive as
// float64; integral values are rendered without a fraction so they can
// appear in URLs.
func rowString(row map[string]any, field string) string {
	if field == "" {
		return ""
	}
	switch v := row[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
