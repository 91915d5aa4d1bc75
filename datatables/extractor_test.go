package datatables_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fangeriz/gazette"
	"github.com/fangeriz/gazette/datatables"
)

func kuwaitFields() datatables.FieldMap {
	return datatables.FieldMap{
		Title:       "AdsTitle",
		Section:     "AdsCategoryTitle",
		Department:  "AgentTitle",
		URLTemplate: "/flip?id={EditionID_FK}&no={FromPage}",
	}
}

func TestExtractor(t *testing.T) {
	t.Parallel()

	src := &gazette.Source{CountryCode: "kw", BaseURL: "https://gazette.test"}

	t.Run("maps rows to items with templated URLs", func(t *testing.T) {
		t.Parallel()

		body := `{
			"draw": 1,
			"recordsTotal": 3,
			"data": [
				{"AdsTitle": "Ministerial Decision 45", "AdsCategoryTitle": "Decisions", "AgentTitle": "Ministry of Interior", "EditionID_FK": 1844, "FromPage": 12},
				{"AdsTitle": "Company Registration", "AdsCategoryTitle": "Commercial", "AgentTitle": "MOCI", "EditionID_FK": 1844, "FromPage": 30},
				{"AdsTitle": "  ", "AdsCategoryTitle": "Empty", "EditionID_FK": 1844, "FromPage": 31}
			]
		}`

		ex, err := datatables.NewExtractor(src, kuwaitFields())
		require.NoError(t, err)

		items, err := ex.Extract(body)

		require.NoError(t, err)
		require.Len(t, items, 2)

		assert.Equal(t, "Ministerial Decision 45", items[0].Title)
		assert.Equal(t, "Decisions", items[0].Section)
		assert.Equal(t, "Ministry of Interior", items[0].Department)
		assert.Equal(t, "https://gazette.test/flip?id=1844&no=12", items[0].URL)

		assert.Equal(t, "https://gazette.test/flip?id=1844&no=30", items[1].URL)
	})

	t.Run("missing row fields become empty strings", func(t *testing.T) {
		t.Parallel()

		body := `{"data":[{"AdsTitle":"Only a title","EditionID_FK":7,"FromPage":1}]}`

		ex, err := datatables.NewExtractor(src, kuwaitFields())
		require.NoError(t, err)

		items, err := ex.Extract(body)

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "", items[0].Section)
		assert.Equal(t, "", items[0].Department)
	})

	t.Run("invalid JSON yields empty results, not an error", func(t *testing.T) {
		t.Parallel()

		ex, err := datatables.NewExtractor(src, kuwaitFields())
		require.NoError(t, err)

		items, err := ex.Extract("<html>definitely not json</html>")

		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("requires a title field", func(t *testing.T) {
		t.Parallel()

		_, err := datatables.NewExtractor(src, datatables.FieldMap{})

		require.Error(t, err)
		assert.Equal(t, gazette.EINVALID, gazette.ErrorCode(err))
	})
}
