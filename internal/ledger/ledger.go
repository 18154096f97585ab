// Package ledger implements the append-only hash-chained ledger
// described in spec.md §4.6: every stage transition is recorded as an
// Entry carrying the hash of the previous entry, so any mutation or
// gap in the chain is detectable by recomputing hashes forward.
package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ninjra/autocapture-prime-sub005/internal/atomicfile"
	"github.com/ninjra/autocapture-prime-sub005/internal/canon"
)

// Entry is one hash-chained ledger record (spec.md §3's LedgerEntry).
type Entry struct {
	TsUTC     string          `json:"ts_utc"`
	Stage     string          `json:"stage"`
	Inputs    []string        `json:"inputs"`
	Outputs   []string        `json:"outputs"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Sequence  int64           `json:"sequence"`
	PrevHash  string          `json:"prev_hash"`
	ThisHash  string          `json:"this_hash"`
}

// withoutHash is Entry minus this_hash, the exact byte shape hashed to
// produce ThisHash.
type withoutHash struct {
	TsUTC    string          `json:"ts_utc"`
	Stage    string          `json:"stage"`
	Inputs   []string        `json:"inputs"`
	Outputs  []string        `json:"outputs"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Sequence int64           `json:"sequence"`
	PrevHash string          `json:"prev_hash"`
}

func computeHash(e Entry) (string, error) {
	return canon.Hash(withoutHash{
		TsUTC:    e.TsUTC,
		Stage:    e.Stage,
		Inputs:   e.Inputs,
		Outputs:  e.Outputs,
		Payload:  e.Payload,
		Sequence: e.Sequence,
		PrevHash: e.PrevHash,
	})
}

// GenesisHash is prev_hash for the first entry in a chain.
const GenesisHash = ""

// Writer appends entries to a single-writer NDJSON ledger, tracking
// sequence and prev_hash in memory so callers never supply them.
type Writer struct {
	appender *atomicfile.NDJSONAppender
	seq      int64
	lastHash string
}

// OpenWriter opens the ledger at path for appending, replaying any
// existing entries first to recover sequence/lastHash state.
func OpenWriter(path string) (*Writer, error) {
	seq, lastHash, err := tailState(path)
	if err != nil {
		return nil, err
	}
	appender, err := atomicfile.OpenNDJSONAppender(path)
	if err != nil {
		return nil, err
	}
	return &Writer{appender: appender, seq: seq, lastHash: lastHash}, nil
}

func tailState(path string) (int64, string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, GenesisHash, nil
	}
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	var seq int64
	lastHash := GenesisHash
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return 0, "", fmt.Errorf("ledger: corrupt entry while replaying %s: %w", path, err)
		}
		seq = e.Sequence
		lastHash = e.ThisHash
	}
	if err := scanner.Err(); err != nil {
		return 0, "", err
	}
	return seq, lastHash, nil
}

// Append writes the next entry in the chain, filling in sequence,
// prev_hash, and this_hash.
func (w *Writer) Append(tsUTC, stage string, inputs, outputs []string, payload json.RawMessage) (Entry, error) {
	w.seq++
	e := Entry{
		TsUTC:    tsUTC,
		Stage:    stage,
		Inputs:   inputs,
		Outputs:  outputs,
		Payload:  payload,
		Sequence: w.seq,
		PrevHash: w.lastHash,
	}
	hash, err := computeHash(e)
	if err != nil {
		w.seq--
		return Entry{}, err
	}
	e.ThisHash = hash
	if err := w.appender.Append(e); err != nil {
		w.seq--
		return Entry{}, err
	}
	w.lastHash = hash
	return e, nil
}

// Close flushes the underlying appender.
func (w *Writer) Close() error { return w.appender.Close() }

// VerifyResult reports the outcome of chain verification.
type VerifyResult struct {
	OK       bool   `json:"ok"`
	Entries  int    `json:"entries"`
	BreakAt  int64  `json:"break_at_sequence,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Verify reads path and checks that every entry's prev_hash matches
// the previous entry's this_hash and that this_hash is reproducible.
// A missing file is reported as ok (nothing to verify), matching the
// CLI's exit-0 "ok-missing" contract.
func Verify(path string) (VerifyResult, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return VerifyResult{OK: true, Entries: 0}, nil
	}
	if err != nil {
		return VerifyResult{}, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	prevHash := GenesisHash
	count := 0
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return VerifyResult{OK: false, Entries: count, Reason: "malformed_entry"}, nil
		}
		if e.PrevHash != prevHash {
			return VerifyResult{OK: false, Entries: count, BreakAt: e.Sequence, Reason: "prev_hash_mismatch"}, nil
		}
		recomputed, err := computeHash(e)
		if err != nil {
			return VerifyResult{}, err
		}
		if recomputed != e.ThisHash {
			return VerifyResult{OK: false, Entries: count, BreakAt: e.Sequence, Reason: "this_hash_mismatch"}, nil
		}
		prevHash = e.ThisHash
		count++
	}
	if err := scanner.Err(); err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{OK: true, Entries: count}, nil
}

// ReadAll loads every entry in the ledger at path, in order. Used by
// anchor computation to hash a window of entries.
func ReadAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("ledger: corrupt entry in %s: %w", path, err)
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
