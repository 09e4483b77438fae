package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohaynold/artaf/internal/store"
	"github.com/ohaynold/artaf/internal/taf"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "tafs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func at(year int, hour int) time.Time {
	return time.Date(year, time.June, 1, hour, 0, 0, 0, time.UTC)
}

func TestStore_InsertAndReadBack(t *testing.T) {
	s := openTestStore(t)

	msgs := []taf.RawMessage{
		{Time: at(2023, 0), Text: "first"},
		{Time: at(2023, 6), Text: "second"},
		{Time: at(2024, 0), Text: "third"},
	}
	require.NoError(t, s.InsertMessages("KORD", msgs))

	t.Run("single year", func(t *testing.T) {
		got, err := s.Messages("KORD", 2023, 2023)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "first", got[0].Text)
		assert.Equal(t, at(2023, 0), got[0].Time)
		assert.Equal(t, "second", got[1].Text)
	})

	t.Run("inclusive range", func(t *testing.T) {
		got, err := s.Messages("KORD", 2023, 2024)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("other station is empty", func(t *testing.T) {
		got, err := s.Messages("KSFO", 2023, 2024)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStore_InsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	msgs := []taf.RawMessage{{Time: at(2023, 0), Text: "original"}}
	require.NoError(t, s.InsertMessages("KORD", msgs))
	// A replayed download must not duplicate or overwrite.
	require.NoError(t, s.InsertMessages("KORD", []taf.RawMessage{{Time: at(2023, 0), Text: "replayed"}}))

	got, err := s.Messages("KORD", 2023, 2023)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "original", got[0].Text)
}

func TestStore_YearMarks(t *testing.T) {
	s := openTestStore(t)

	has, err := s.HasYear("KORD", 2023)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.MarkYear("KORD", 2023))
	require.NoError(t, s.MarkYear("KORD", 2023)) // marking twice is fine

	has, err = s.HasYear("KORD", 2023)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.HasYear("KORD", 2024)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tafs.db")

	s, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.InsertMessages("KORD", []taf.RawMessage{{Time: at(2023, 0), Text: "kept"}}))
	require.NoError(t, s.Close())

	s, err = store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Messages("KORD", 2023, 2023)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Text)
}
