package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohaynold/artaf/internal/observability"
	"github.com/ohaynold/artaf/internal/station"
	"github.com/ohaynold/artaf/internal/store"
)

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseArchive(t *testing.T) {
	data := zipArchive(t, map[string]string{
		"TAFORD_202301011130.txt": "KORD 011130Z 0112/0218 21012KT P6SM SKC=",
		"TAFORD_202301011740.txt": "KORD 011740Z 0118/0224 22015KT P6SM SKC=",
	})

	msgs, err := parseArchive(data)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, time.Date(2023, time.January, 1, 11, 30, 0, 0, time.UTC), msgs[0].Time)
	assert.Equal(t, time.Date(2023, time.January, 1, 17, 40, 0, 0, time.UTC), msgs[1].Time)
	assert.Contains(t, msgs[0].Text, "011130Z")
}

func TestParseArchive_SkipsDuplicateTimes(t *testing.T) {
	data := zipArchive(t, map[string]string{
		"TAFORD_202301011130.txt": "KORD 011130Z 0112/0218 21012KT P6SM SKC=",
		"TAFXRD_202301011130.txt": "same product listed twice",
	})

	msgs, err := parseArchive(data)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "011130Z")
}

func TestParseArchive_UnexpectedFile(t *testing.T) {
	data := zipArchive(t, map[string]string{"README.txt": "hello"})

	_, err := parseArchive(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected file")
}

func TestParseArchive_NotAZip(t *testing.T) {
	_, err := parseArchive([]byte("not a zip"))
	assert.Error(t, err)
}

func TestClient_FetchYear(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	logger := observability.NewLogger("error", "text")

	t.Run("passes archive query parameters", func(t *testing.T) {
		var gotQuery atomic.Value
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery.Store(r.URL.Query())
			w.Write([]byte("payload"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, time.Second, logger, metrics)
		data, err := c.FetchYear(context.Background(), "TAFORD", 2023)
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)

		q := gotQuery.Load().(url.Values)
		assert.Equal(t, "TAFORD", q["pil"][0])
		assert.Equal(t, "2023-01-01T00:00Z", q["sdate"][0])
		assert.Equal(t, "2024-01-01T00:00Z", q["edate"][0])
		assert.Equal(t, "zip", q["fmt"][0])
		assert.Equal(t, "asc", q["order"][0])
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte("eventually"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, time.Second, logger, metrics)
		data, err := c.FetchYear(context.Background(), "TAFORD", 2023)
		require.NoError(t, err)
		assert.Equal(t, []byte("eventually"), data)
		assert.Equal(t, int64(3), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, time.Second, logger, metrics)
		_, err := c.FetchYear(context.Background(), "TAFORD", 2023)
		require.Error(t, err)
		assert.Equal(t, int64(1), calls.Load())
	})
}

func TestDownloader(t *testing.T) {
	logger := observability.NewLogger("error", "text")
	stations := []station.Station{{ID: "KORD"}}
	archiveData := zipArchive(t, map[string]string{
		"TAFORD_202301011130.txt": "KORD 011130Z 0112/0218 21012KT P6SM SKC=",
	})

	newDownloader := func(t *testing.T, now time.Time, handler http.HandlerFunc) (*Downloader, *store.Store) {
		t.Helper()
		metrics := observability.NewMetricsForTesting()
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)

		st, err := store.Open(filepath.Join(t.TempDir(), "tafs.db"))
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })

		client := NewClient(srv.URL, time.Second, logger, metrics)
		return NewDownloader(client, st, logger, metrics, clockwork.NewFakeClockAt(now)), st
	}

	t.Run("downloads and marks the year", func(t *testing.T) {
		var calls atomic.Int64
		d, st := newDownloader(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
			func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.Write(archiveData)
			})

		require.NoError(t, d.Download(context.Background(), stations, 2023, 2023, false))
		assert.Equal(t, int64(1), calls.Load())

		msgs, err := st.Messages("KORD", 2023, 2023)
		require.NoError(t, err)
		assert.Len(t, msgs, 1)

		has, err := st.HasYear("KORD", 2023)
		require.NoError(t, err)
		assert.True(t, has)

		// A second run serves from the cache.
		require.NoError(t, d.Download(context.Background(), stations, 2023, 2023, false))
		assert.Equal(t, int64(1), calls.Load())
	})

	t.Run("refuses an unfinished year", func(t *testing.T) {
		// January 2 of the next year: the archive may still be back-filling.
		d, _ := newDownloader(t, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
			func(w http.ResponseWriter, _ *http.Request) {
				w.Write(archiveData)
			})

		err := d.Download(context.Background(), stations, 2023, 2023, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not complete yet")
	})

	t.Run("rejects inverted year range", func(t *testing.T) {
		d, _ := newDownloader(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
			func(w http.ResponseWriter, _ *http.Request) {
				w.Write(archiveData)
			})

		err := d.Download(context.Background(), stations, 2023, 2022, false)
		assert.Error(t, err)
	})

	t.Run("rejects malformed station identifier", func(t *testing.T) {
		d, _ := newDownloader(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
			func(w http.ResponseWriter, _ *http.Request) {
				w.Write(archiveData)
			})

		err := d.Download(context.Background(), []station.Station{{ID: "ORD"}}, 2023, 2023, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid station identifier")
	})

	t.Run("force redownloads", func(t *testing.T) {
		var calls atomic.Int64
		d, _ := newDownloader(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
			func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.Write(archiveData)
			})

		require.NoError(t, d.Download(context.Background(), stations, 2023, 2023, false))
		require.NoError(t, d.Download(context.Background(), stations, 2023, 2023, true))
		assert.Equal(t, int64(2), calls.Load())
	})
}
