// Package store is the local cache of raw TAF messages, backed by SQLite.
// It replaces repeated archive downloads: once a station-year is marked
// complete, readers serve from disk only.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ohaynold/artaf/internal/taf"
)

// Store wraps the cache database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS taf_messages (
			station     TEXT    NOT NULL,
			observed_at INTEGER NOT NULL, -- unix seconds, UTC
			text        TEXT    NOT NULL,
			PRIMARY KEY (station, observed_at)
		);
		CREATE TABLE IF NOT EXISTS complete_years (
			station TEXT    NOT NULL,
			year    INTEGER NOT NULL,
			PRIMARY KEY (station, year)
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// HasYear reports whether a station-year has been downloaded completely.
func (s *Store) HasYear(stationID string, year int) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM complete_years WHERE station = ? AND year = ?`,
		stationID, year,
	).Scan(&n)
	return n > 0, err
}

// MarkYear records that a station-year is fully cached.
func (s *Store) MarkYear(stationID string, year int) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO complete_years (station, year) VALUES (?, ?)`,
		stationID, year,
	)
	return err
}

// InsertMessages stores raw messages for one station. Re-inserting an
// already cached (station, time) pair is a no-op, which makes recovering an
// interrupted download idempotent. The archive occasionally lists a product
// twice; the primary key absorbs that too.
func (s *Store) InsertMessages(stationID string, msgs []taf.RawMessage) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO taf_messages (station, observed_at, text) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range msgs {
		if _, err := stmt.Exec(stationID, m.Time.Unix(), m.Text); err != nil {
			return fmt.Errorf("insert message %s %s: %w", stationID, m.Time, err)
		}
	}
	return tx.Commit()
}

// Messages returns one station's cached messages for an inclusive year
// range, ascending by time.
func (s *Store) Messages(stationID string, fromYear, toYear int) ([]taf.RawMessage, error) {
	from := time.Date(fromYear, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	until := time.Date(toYear+1, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()

	rows, err := s.db.Query(`
		SELECT observed_at, text FROM taf_messages
		WHERE station = ? AND observed_at >= ? AND observed_at < ?
		ORDER BY observed_at ASC
	`, stationID, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []taf.RawMessage
	for rows.Next() {
		var sec int64
		var text string
		if err := rows.Scan(&sec, &text); err != nil {
			return nil, err
		}
		msgs = append(msgs, taf.RawMessage{Time: time.Unix(sec, 0).UTC(), Text: text})
	}
	return msgs, rows.Err()
}
