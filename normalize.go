package gazette

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes text for comparison purposes: Unicode
// compatibility normalization (NFKC), whitespace runs collapsed to single
// spaces, trimmed, lowercased.
//
// Normalized text is used exclusively to build comparison keys for change
// detection and content-identity hashing. The original text is always what
// gets persisted and displayed.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}
