package gazette

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FetchMethod selects the transport used to retrieve a source's listing.
type FetchMethod string

// Supported fetch methods.
const (
	FetchHTTP       FetchMethod = "http"
	FetchHeadless   FetchMethod = "headless"
	FetchTwoStepAPI FetchMethod = "two_step_api"
)

// Valid reports whether m is a known fetch method.
func (m FetchMethod) Valid() bool {
	switch m {
	case FetchHTTP, FetchHeadless, FetchTwoStepAPI:
		return true
	}
	return false
}

// Source describes one monitored gazette. A Source is immutable for the
// duration of a run; it is owned by the invoking caller and passed into
// every component.
type Source struct {
	// CountryCode identifies the source (e.g. "es", "fr", "kw").
	// Also keys the per-source database tables.
	CountryCode string

	// Name is the human-readable display name used in notifications.
	Name string

	// BaseURL is used to resolve relative publication URLs.
	BaseURL string

	// URLTemplate is the listing URL with named date placeholders,
	// e.g. "https://www.boe.es/datosabiertos/api/boe/sumario/{date_ymd}".
	URLTemplate string

	// Method selects the fetch transport.
	Method FetchMethod

	// Headers are sent with every request for this source.
	Headers map[string]string

	// VerifySSL disables TLS certificate verification when false.
	// Some gazette sites serve expired or self-signed certificates.
	VerifySSL bool

	// Timeout bounds a single fetch attempt.
	Timeout time.Duration

	// Delay paces requests to the source and doubles as the fixed
	// render wait for the headless transport.
	Delay time.Duration

	// MaxRetries is the total number of fetch attempts (not additional
	// retries). Zero means DefaultMaxRetries.
	MaxRetries int

	// Parser names a registered specialized extractor. Empty means the
	// generic rule-driven extractor configured via Rules.
	Parser string

	// Rules drives the generic extractor when Parser is empty.
	Rules *Rules

	// Sentinels are text fragments that mark a "still loading / blocked"
	// page returned by the headless transport. Empty means defaults.
	Sentinels []string
}

// DefaultMaxRetries is the number of fetch attempts when a source does
// not configure its own.
const DefaultMaxRetries = 3

// Validate returns an error if the source configuration is invalid.
func (s *Source) Validate() error {
	if s.CountryCode == "" {
		return Errorf(EINVALID, "source country code required")
	}
	if s.URLTemplate == "" {
		return Errorf(EINVALID, "source %s: URL template required", s.CountryCode)
	}
	if !s.Method.Valid() {
		return Errorf(EINVALID, "source %s: unknown fetch method %q", s.CountryCode, s.Method)
	}
	if s.Parser == "" && s.Rules == nil {
		return Errorf(EINVALID, "source %s: either parser or parser_rules required", s.CountryCode)
	}
	return nil
}

// placeholderRE matches an unresolved {name} placeholder left in a URL.
var placeholderRE = regexp.MustCompile(`\{[a-z_]+\}`)

// URLFor builds the listing URL for the given date by substituting the
// named date placeholders into the URL template. An unknown placeholder
// in the template is a configuration error, reported immediately and
// never retried.
//
// Supported placeholders: {date_ymd} (YYYYMMDD), {date} (alias),
// {date_iso} (YYYY-MM-DD), {date_dmy} (DD/MM/YYYY), {date_dmy_encoded}
// (DD%2FMM%2FYYYY), {date_dmy_dot} (DD.MM.YYYY), {day}, {month}, {year}.
func (s *Source) URLFor(date time.Time) (string, error) {
	dmy := date.Format("02/01/2006")
	r := strings.NewReplacer(
		"{date_ymd}", date.Format("20060102"),
		"{date}", date.Format("20060102"),
		"{date_iso}", date.Format("2006-01-02"),
		"{date_dmy}", dmy,
		"{date_dmy_encoded}", strings.ReplaceAll(dmy, "/", "%2F"),
		"{date_dmy_dot}", date.Format("02.01.2006"),
		"{day}", strconv.Itoa(date.Day()),
		"{month}", strconv.Itoa(int(date.Month())),
		"{year}", strconv.Itoa(date.Year()),
	)
	u := r.Replace(s.URLTemplate)
	if m := placeholderRE.FindString(u); m != "" {
		return "", Errorf(EINVALID, "source %s: unknown URL placeholder %s", s.CountryCode, m)
	}
	return u, nil
}

// JoinURL resolves a possibly relative publication URL against a base
// URL, handling the boundary-slash ambiguity: a trailing slash on the
// base combined with a leading slash on the value yields a single slash,
// and a missing slash on both sides inserts one.
func JoinURL(base, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	switch {
	case strings.HasSuffix(base, "/") && strings.HasPrefix(ref, "/"):
		return base + ref[1:]
	case !strings.HasSuffix(base, "/") && !strings.HasPrefix(ref, "/"):
		return base + "/" + ref
	default:
		return base + ref
	}
}

// Rules declaratively describe how to extract publication items from a
// source's markup. Container selects the per-item nodes; each field is
// computed within the matched node's subtree.
type Rules struct {
	// Engine is the parse engine hint ("html" or "xml"). XML content is
	// parsed leniently with the HTML parser, which tolerates the
	// malformed documents some gazettes serve.
	Engine string

	// Container is the CSS selector matching one node per item.
	Container string

	// Fields maps canonical field names (title, section, department,
	// rank, url) to their extraction rules. Title is mandatory: items
	// without a non-empty title are dropped.
	Fields map[string]FieldRule
}

// FieldRule describes how to compute one item field within a container.
type FieldRule struct {
	// Selector locates the field's node. Empty means use Default.
	Selector string

	// Type is the extraction type: "text" (default) or "attr".
	Type string

	// Attr names the attribute to read when Type is "attr".
	Attr string

	// Default is used when the selector is absent or matches nothing.
	Default string
}

// Validate returns an error if the rule set cannot drive extraction.
func (r *Rules) Validate() error {
	if r.Container == "" {
		return Errorf(EINVALID, "parser rules: container selector required")
	}
	if len(r.Fields) == 0 {
		return Errorf(EINVALID, "parser rules: at least one field required")
	}
	for name, f := range r.Fields {
		if f.Type == "attr" && f.Attr == "" {
			return Errorf(EINVALID, "parser rules: field %s: attr name required for attr extraction", name)
		}
	}
	return nil
}

// String returns a short description of the source for diagnostics.
func (s *Source) String() string {
	return fmt.Sprintf("%s (%s)", s.Name, strings.ToUpper(s.CountryCode))
}
