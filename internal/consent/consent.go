// Package consent implements the fail-closed capture consent gate
// described in spec.md: capture must not start until the operator has
// explicitly accepted, recorded in a single atomic JSON file. Any
// missing, malformed, or false consent file disables capture until
// re-accepted. Grounded on
// original_source/autocapture_nx/kernel/consent.py.
package consent

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ninjra/autocapture-prime-sub005/internal/atomicfile"
	"github.com/ninjra/autocapture-prime-sub005/internal/timebase"
)

// SchemaVersion is the on-disk consent.capture.json schema version.
const SchemaVersion = 1

// Capture records whether capture has been accepted and when.
type Capture struct {
	SchemaVersion int     `json:"schema_version"`
	Accepted      bool    `json:"accepted"`
	AcceptedTsUTC *string `json:"accepted_ts_utc"`
}

// Path returns the canonical consent file location under dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "state", "consent.capture.json")
}

// Load reads the consent file for dataDir. Any error reading or
// parsing it is treated as not-accepted (fail closed), never
// propagated to the caller.
func Load(dataDir string) Capture {
	path := Path(dataDir)
	b, err := os.ReadFile(path)
	if err != nil {
		return Capture{SchemaVersion: SchemaVersion, Accepted: false}
	}
	var payload struct {
		Accepted      bool   `json:"accepted"`
		AcceptedTsUTC string `json:"accepted_ts_utc"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		return Capture{SchemaVersion: SchemaVersion, Accepted: false}
	}
	c := Capture{SchemaVersion: SchemaVersion, Accepted: payload.Accepted}
	if payload.AcceptedTsUTC != "" {
		ts := payload.AcceptedTsUTC
		c.AcceptedTsUTC = &ts
	}
	return c
}

// Accept writes an accepted consent record, stamped with the current
// UTC time, and returns it.
func Accept(dataDir string) (Capture, error) {
	now := timebase.UTCNowZ()
	c := Capture{SchemaVersion: SchemaVersion, Accepted: true, AcceptedTsUTC: &now}
	if err := atomicfile.WriteJSON(Path(dataDir), c); err != nil {
		return Capture{}, err
	}
	return c, nil
}

// Allowed reports whether capture may proceed: the file must exist,
// parse, and have accepted == true.
func Allowed(dataDir string) bool {
	return Load(dataDir).Accepted
}
