package ledger

import (
	"encoding/json"

	"github.com/ninjra/autocapture-prime-sub005/internal/atomicfile"
)

// JournalEvent is one line of operational telemetry: disk.pressure,
// capture.silence, watchdog.*, key_rotation.rollback, and similar.
// Unlike ledger Entries, journal events are not hash-chained — they
// feed alert derivation, not integrity verification.
type JournalEvent struct {
	TsUTC  string          `json:"ts_utc"`
	Event  string          `json:"event"`
	Fields json.RawMessage `json:"fields,omitempty"`
}

// Journal appends operational telemetry events to a single NDJSON file.
type Journal struct {
	appender *atomicfile.NDJSONAppender
}

// OpenJournal opens (creating if needed) the journal at path.
func OpenJournal(path string) (*Journal, error) {
	appender, err := atomicfile.OpenNDJSONAppender(path)
	if err != nil {
		return nil, err
	}
	return &Journal{appender: appender}, nil
}

// Emit appends a journal event.
func (j *Journal) Emit(tsUTC, event string, fields any) error {
	var raw json.RawMessage
	if fields != nil {
		b, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		raw = b
	}
	return j.appender.Append(JournalEvent{TsUTC: tsUTC, Event: event, Fields: raw})
}

// Close flushes the underlying appender.
func (j *Journal) Close() error { return j.appender.Close() }

// ReadJournal loads every event at path, in append order. A missing
// file yields an empty, non-error result.
func ReadJournal(path string) ([]JournalEvent, error) {
	return readNDJSON[JournalEvent](path)
}
