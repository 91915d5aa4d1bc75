package gazette_test

import (
	"testing"

	"github.com/fangeriz/gazette"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("collapses whitespace, trims and lowercases", func(t *testing.T) {
		t.Parallel()

		got := gazette.Normalize("  TÍTULO   de Ejemplo ")
		want := gazette.Normalize("título de ejemplo")

		assert.Equal(t, want, got)
		assert.Equal(t, "título de ejemplo", got)
	})

	t.Run("applies NFKC compatibility normalization", func(t *testing.T) {
		t.Parallel()

		// U+FB01 LATIN SMALL LIGATURE FI decomposes to "fi" under NFKC.
		assert.Equal(t, "final", gazette.Normalize("ﬁnal"))
	})

	t.Run("handles tabs and newlines as whitespace", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "a b c", gazette.Normalize("a\tb\nc"))
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "", gazette.Normalize("   "))
	})
}
