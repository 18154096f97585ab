// Package ingest implements the session ingest pipeline: scanning the
// capture spool for complete sessions, loading each session's manifest
// and chronicle batches, running OCR/layout/linking per frame, and
// writing the resulting tables plus a lexical search index. Grounded
// on original_source/autocapture_prime/ingest/{session_scanner,
// session_loader,pipeline}.py and store/{tables,index}.py.
package ingest

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ninjra/autocapture-prime-sub005/internal/timebase"
)

// SessionCandidate identifies one complete spooled capture session.
type SessionCandidate struct {
	SessionID     string
	SessionDir    string
	ManifestPath  string
}

// Scanner enumerates complete spool sessions and tracks which have
// already been ingested, using a small sqlite state table alongside
// the spool root.
type Scanner struct {
	spoolRoot string
	db        *sql.DB
}

// OpenScanner opens (creating if needed) the scanner's state database
// at stateDB, watching spoolRoot for session_* directories.
func OpenScanner(spoolRoot, stateDB string) (*Scanner, error) {
	if err := os.MkdirAll(filepath.Dir(stateDB), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", stateDB)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS processed_sessions (
		session_id TEXT PRIMARY KEY,
		session_dir TEXT NOT NULL,
		processed_at_utc TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &Scanner{spoolRoot: spoolRoot, db: db}, nil
}

// Close releases the scanner's state database handle.
func (s *Scanner) Close() error { return s.db.Close() }

// ListComplete returns every spooled session directory that carries
// both a manifest.json and a COMPLETE.json marker, sorted by name.
func (s *Scanner) ListComplete() ([]SessionCandidate, error) {
	entries, err := os.ReadDir(s.spoolRoot)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "session_") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []SessionCandidate
	for _, name := range names {
		dir := filepath.Join(s.spoolRoot, name)
		manifest := filepath.Join(dir, "manifest.json")
		complete := filepath.Join(dir, "COMPLETE.json")
		if !fileExists(manifest) || !fileExists(complete) {
			continue
		}
		out = append(out, SessionCandidate{
			SessionID:    strings.TrimPrefix(name, "session_"),
			SessionDir:   dir,
			ManifestPath: manifest,
		})
	}
	return out, nil
}

// ListPending returns every complete session not yet marked processed.
func (s *Scanner) ListPending(ctx context.Context) ([]SessionCandidate, error) {
	complete, err := s.ListComplete()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM processed_sessions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seen := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		seen[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var pending []SessionCandidate
	for _, c := range complete {
		if !seen[c.SessionID] {
			pending = append(pending, c)
		}
	}
	return pending, nil
}

// MarkProcessed records session as ingested so future ListPending
// calls skip it.
func (s *Scanner) MarkProcessed(ctx context.Context, session SessionCandidate) error {
	now := timebase.UTCNowZ()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_sessions (session_id, session_dir, processed_at_utc)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			session_dir=excluded.session_dir,
			processed_at_utc=excluded.processed_at_utc
	`, session.SessionID, session.SessionDir, now)
	return err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
