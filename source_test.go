package gazette_test

import (
	"testing"
	"time"

	"github.com/fangeriz/gazette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceURLFor(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)

	t.Run("substitutes date placeholders", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			template string
			want     string
		}{
			{"https://x.test/api/{date_ymd}", "https://x.test/api/20260305"},
			{"https://x.test/api/{date}", "https://x.test/api/20260305"},
			{"https://x.test/api/{date_iso}", "https://x.test/api/2026-03-05"},
			{"https://x.test/jo/{date_dmy}", "https://x.test/jo/05/03/2026"},
			{"https://x.test/q?d={date_dmy_encoded}", "https://x.test/q?d=05%2F03%2F2026"},
			{"https://x.test/d/{date_dmy_dot}", "https://x.test/d/05.03.2026"},
			{"https://x.test/{year}/{month}/{day}", "https://x.test/2026/3/5"},
		}

		for _, tt := range tests {
			src := &gazette.Source{CountryCode: "es", URLTemplate: tt.template}
			got, err := src.URLFor(date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		}
	})

	t.Run("unknown placeholder is a configuration error", func(t *testing.T) {
		t.Parallel()

		src := &gazette.Source{CountryCode: "es", URLTemplate: "https://x.test/{date_weird}"}

		_, err := src.URLFor(date)

		require.Error(t, err)
		assert.Equal(t, gazette.EINVALID, gazette.ErrorCode(err))
	})
}

func TestSourceValidate(t *testing.T) {
	t.Parallel()

	valid := func() *gazette.Source {
		return &gazette.Source{
			CountryCode: "es",
			Name:        "BOE",
			URLTemplate: "https://x.test/{date_ymd}",
			Method:      gazette.FetchHTTP,
			Parser:      "boe",
		}
	}

	t.Run("valid source passes", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, valid().Validate())
	})

	t.Run("requires country code", func(t *testing.T) {
		t.Parallel()
		src := valid()
		src.CountryCode = ""
		assert.Equal(t, gazette.EINVALID, gazette.ErrorCode(src.Validate()))
	})

	t.Run("requires URL template", func(t *testing.T) {
		t.Parallel()
		src := valid()
		src.URLTemplate = ""
		assert.Equal(t, gazette.EINVALID, gazette.ErrorCode(src.Validate()))
	})

	t.Run("rejects unknown fetch method", func(t *testing.T) {
		t.Parallel()
		src := valid()
		src.Method = "carrier_pigeon"
		assert.Equal(t, gazette.EINVALID, gazette.ErrorCode(src.Validate()))
	})

	t.Run("requires parser or rules", func(t *testing.T) {
		t.Parallel()
		src := valid()
		src.Parser = ""
		src.Rules = nil
		assert.Equal(t, gazette.EINVALID, gazette.ErrorCode(src.Validate()))
	})
}

func TestJoinURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"strips doubled boundary slash", "https://x.test/", "/doc/1", "https://x.test/doc/1"},
		{"inserts missing boundary slash", "https://x.test", "doc/1", "https://x.test/doc/1"},
		{"plain concatenation otherwise", "https://x.test", "/doc/1", "https://x.test/doc/1"},
		{"absolute URLs pass through", "https://x.test", "https://y.test/doc", "https://y.test/doc"},
		{"empty ref stays empty", "https://x.test", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, gazette.JoinURL(tt.base, tt.ref))
		})
	}
}

func TestRulesValidate(t *testing.T) {
	t.Parallel()

	t.Run("requires container", func(t *testing.T) {
		t.Parallel()
		r := &gazette.Rules{Fields: map[string]gazette.FieldRule{"title": {Selector: "a"}}}
		assert.Equal(t, gazette.EINVALID, gazette.ErrorCode(r.Validate()))
	})

	t.Run("requires fields", func(t *testing.T) {
		t.Parallel()
		r := &gazette.Rules{Container: "div.item"}
		assert.Equal(t, gazette.EINVALID, gazette.ErrorCode(r.Validate()))
	})

	t.Run("attr extraction requires attr name", func(t *testing.T) {
		t.Parallel()
		r := &gazette.Rules{
			Container: "div.item",
			Fields:    map[string]gazette.FieldRule{"url": {Selector: "a", Type: "attr"}},
		}
		assert.Equal(t, gazette.EINVALID, gazette.ErrorCode(r.Validate()))
	})
}
