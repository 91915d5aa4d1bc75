package resty_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fangeriz/gazette"
	"github.com/fangeriz/gazette/resty"
)

func testSource(url string) *gazette.Source {
	return &gazette.Source{
		CountryCode: "es",
		Name:        "Test Gazette",
		BaseURL:     url,
		URLTemplate: url + "/sumario/{date_ymd}",
		Method:      gazette.FetchHTTP,
		Headers:     map[string]string{"User-Agent": "gazette-test"},
		VerifySSL:   true,
		MaxRetries:  3,
		Parser:      "boe",
	}
}

func noBackoff(int) time.Duration { return 0 }

func TestFetcher(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	t.Run("returns content on first success", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/sumario/20260305", r.URL.Path)
			assert.Equal(t, "gazette-test", r.Header.Get("User-Agent"))
			w.Write([]byte("<sumario/>"))
		}))
		defer srv.Close()

		f, err := resty.NewFetcher(testSource(srv.URL), resty.WithBackoff(noBackoff))
		require.NoError(t, err)
		defer f.Close()

		res, err := f.Fetch(context.Background(), date)

		require.NoError(t, err)
		assert.Equal(t, "<sumario/>", res.Content)
		assert.NotEmpty(t, res.Hash)
		assert.Equal(t, date, res.Date)
	})

	t.Run("retries 403 and succeeds on third attempt", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) < 3 {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Write([]byte("finally"))
		}))
		defer srv.Close()

		f, err := resty.NewFetcher(testSource(srv.URL), resty.WithBackoff(noBackoff))
		require.NoError(t, err)
		defer f.Close()

		res, err := f.Fetch(context.Background(), date)

		require.NoError(t, err)
		assert.Equal(t, "finally", res.Content)
		assert.Equal(t, int64(3), attempts.Load())
	})

	t.Run("exhausted retries return an unavailable error", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		f, err := resty.NewFetcher(testSource(srv.URL), resty.WithBackoff(noBackoff))
		require.NoError(t, err)
		defer f.Close()

		_, err = f.Fetch(context.Background(), date)

		require.Error(t, err)
		assert.Equal(t, gazette.EUNAVAILABLE, gazette.ErrorCode(err))
		assert.Equal(t, int64(3), attempts.Load())
	})

	t.Run("does not retry a 404", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		f, err := resty.NewFetcher(testSource(srv.URL), resty.WithBackoff(noBackoff))
		require.NoError(t, err)
		defer f.Close()

		_, err = f.Fetch(context.Background(), date)

		require.Error(t, err)
		assert.Equal(t, int64(1), attempts.Load())
	})

	t.Run("missing placeholder fails immediately without a request", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
		}))
		defer srv.Close()

		src := testSource(srv.URL)
		src.URLTemplate = srv.URL + "/{date_bogus}"

		f, err := resty.NewFetcher(src, resty.WithBackoff(noBackoff))
		require.NoError(t, err)
		defer f.Close()

		_, err = f.Fetch(context.Background(), date)

		require.Error(t, err)
		assert.Equal(t, gazette.EINVALID, gazette.ErrorCode(err))
		assert.Equal(t, int64(0), attempts.Load())
	})

	t.Run("session cookies persist across fetches", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := r.Cookie("session"); err != nil {
				http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
				w.Write([]byte("first"))
				return
			}
			w.Write([]byte("second"))
		}))
		defer srv.Close()

		f, err := resty.NewFetcher(testSource(srv.URL), resty.WithBackoff(noBackoff))
		require.NoError(t, err)
		defer f.Close()

		res, err := f.Fetch(context.Background(), date)
		require.NoError(t, err)
		assert.Equal(t, "first", res.Content)

		res, err = f.Fetch(context.Background(), date)
		require.NoError(t, err)
		assert.Equal(t, "second", res.Content)
	})

	t.Run("rejects an invalid source", func(t *testing.T) {
		t.Parallel()

		_, err := resty.NewFetcher(&gazette.Source{})
		require.Error(t, err)
		assert.Equal(t, gazette.EINVALID, gazette.ErrorCode(err))
	})
}

func TestTwoStepFetcher(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	newConfig := func(queryURL string) resty.TwoStepConfig {
		return resty.TwoStepConfig{
			IDPattern: `data\.EditionID_FK\s*=\s*'(\d+)'`,
			QueryURL:  queryURL,
			Form: func(id string) map[string]string {
				return map[string]string{"EditionID_FK": id, "length": "500"}
			},
			Headers: map[string]string{"X-Requested-With": "XMLHttpRequest"},
		}
	}

	t.Run("extracts identifier and posts query", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/sumario/20260305", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<script>data.EditionID_FK = '1844';</script>`))
		})
		mux.HandleFunc("/api/listing", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "1844", r.PostFormValue("EditionID_FK"))
			assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
			w.Write([]byte(`{"data":[]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		f, err := resty.NewTwoStepFetcher(testSource(srv.URL), newConfig(srv.URL+"/api/listing"),
			resty.WithBackoff(noBackoff))
		require.NoError(t, err)
		defer f.Close()

		res, err := f.Fetch(context.Background(), date)

		require.NoError(t, err)
		assert.Equal(t, `{"data":[]}`, res.Content)
	})

	t.Run("fails when the identifier is absent", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>no id here</html>"))
		}))
		defer srv.Close()

		f, err := resty.NewTwoStepFetcher(testSource(srv.URL), newConfig(srv.URL+"/api/listing"),
			resty.WithBackoff(noBackoff))
		require.NoError(t, err)
		defer f.Close()

		_, err = f.Fetch(context.Background(), date)

		require.Error(t, err)
		assert.Equal(t, gazette.EUNAVAILABLE, gazette.ErrorCode(err))
	})

	t.Run("validates its configuration", func(t *testing.T) {
		t.Parallel()

		_, err := resty.NewTwoStepFetcher(testSource("https://x.test"), resty.TwoStepConfig{})
		require.Error(t, err)
		assert.Equal(t, gazette.EINVALID, gazette.ErrorCode(err))
	})
}
