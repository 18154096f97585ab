// Package metadata is the indexed record store backing spec.md §3's
// Record entity: (id, record_type, ts_utc, payload, run_id), plus a
// metadata_projection alignment table. Backed by SQLite through
// database/sql, matching go/materialize/driver/sqlite's driver
// registration style.
package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
	log "github.com/sirupsen/logrus"
)

// Record mirrors spec.md §3's Record entity.
type Record struct {
	ID         string          `json:"record_id"`
	RecordType string          `json:"record_type"`
	TsUTC      string          `json:"ts_utc"`
	RunID      string          `json:"run_id"`
	Payload    json.RawMessage `json:"payload"`
}

// Store wraps a single *sql.DB serializing writes the way the teacher
// serializes access to its SQLite-backed materialization connector:
// one shared connection plus a bounded retry on transient lock/IO
// errors (spec.md §5's "Shared-resource policy").
type Store struct {
	db *sql.DB
}

// Open opens (creating schema if needed) the metadata database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // serialized writer per spec.md §5
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS metadata (
	id TEXT PRIMARY KEY,
	record_type TEXT NOT NULL,
	ts_utc TEXT NOT NULL,
	payload TEXT NOT NULL,
	run_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS metadata_projection (
	id TEXT NOT NULL,
	record_type TEXT NOT NULL,
	ts_utc TEXT NOT NULL,
	ts_epoch INTEGER
);
CREATE INDEX IF NOT EXISTS idx_metadata_projection_id ON metadata_projection(id);
`)
	return err
}

// retryableErr detects the transient SQLite error strings spec.md §5
// names explicitly.
func retryableErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "disk I/O error") ||
		strings.Contains(msg, "database disk image is malformed")
}

// withRetry runs fn at most 3 times in total, sleeping 2s after each
// of the transient errors spec.md §7's TransientIO kind names.
func withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = fn()
		if err == nil || !retryableErr(err) {
			return err
		}
		log.WithError(err).WithField("attempt", attempt+1).Warn("metadata: transient error, retrying")
		time.Sleep(2 * time.Second)
	}
	return err
}

// Put inserts or replaces r, and maintains the metadata_projection
// alignment row the Alignment gate checks (spec.md §3's invariants).
func (s *Store) Put(ctx context.Context, r Record) error {
	return withRetry(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO metadata (id, record_type, ts_utc, payload, run_id) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.RecordType, r.TsUTC, string(r.Payload), r.RunID,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM metadata_projection WHERE id = ?`, r.ID,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO metadata_projection (id, record_type, ts_utc, ts_epoch) VALUES (?, ?, ?, NULL)`,
			r.ID, r.RecordType, r.TsUTC,
		); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// Get fetches a single record by id.
func (s *Store) Get(ctx context.Context, id string) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, record_type, ts_utc, payload, run_id FROM metadata WHERE id = ?`, id)
	var r Record
	var payload string
	if err := row.Scan(&r.ID, &r.RecordType, &r.TsUTC, &payload, &r.RunID); err != nil {
		if err == sql.ErrNoRows {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	r.Payload = json.RawMessage(payload)
	return r, true, nil
}

// CountMisaligned returns the number of metadata rows without a
// matching metadata_projection row (or vice versa) — the Alignment
// gate invariant from spec.md §3.
func (s *Store) CountMisaligned(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT
  (SELECT COUNT(*) FROM metadata m WHERE NOT EXISTS (SELECT 1 FROM metadata_projection p WHERE p.id = m.id))
  +
  (SELECT COUNT(*) FROM metadata_projection p WHERE NOT EXISTS (SELECT 1 FROM metadata m WHERE m.id = p.id))
`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Count returns the total number of records.
func (s *Store) Count(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM metadata`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
