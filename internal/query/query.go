// Package query answers free-text questions over ingested session
// data. It has no kernel boot sequence of its own — the facade layer
// decides whether the system is ready to serve a query and hands this
// package only a capability registry and a storage root to search —
// but it returns the same deterministic degraded-answer shapes the
// original kernel query path used when boot failed or a required
// capability was missing, so callers (CLI, web console) never have to
// special-case "the kernel never came up" versus "no results found".
package query

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ninjra/autocapture-prime-sub005/internal/capability"
)

// RequiredCapabilities lists the capability ids a query needs before it
// can run at all.
var RequiredCapabilities = []string{"storage.metadata", "retrieval.strategy"}

// Response is the facade-facing answer shape. Error-path fields mirror
// the deterministic payloads the NX facade returned on kernel boot
// failure and on missing-capability short-circuit.
type Response struct {
	OK         bool           `json:"ok"`
	Error      string         `json:"error,omitempty"`
	Answer     map[string]any `json:"answer,omitempty"`
	Processing map[string]any `json:"processing,omitempty"`
}

// BootFailed builds the payload returned when the kernel never booted.
func BootFailed(reason string) Response {
	return Response{
		OK:    false,
		Error: "kernel_boot_failed",
		Answer: map[string]any{
			"state": "degraded",
		},
		Processing: map[string]any{
			"extraction": map[string]any{"blocked_reason": "kernel_boot_failed"},
			"query_trace": map[string]any{
				"error":  "kernel_boot_failed",
				"reason": reason,
			},
		},
	}
}

// CapabilityMissing builds the payload returned when one or more
// RequiredCapabilities are absent from the registry.
func CapabilityMissing(missing []string) Response {
	return Response{
		OK:    false,
		Error: "query_capability_missing",
		Answer: map[string]any{
			"state": "degraded",
		},
		Processing: map[string]any{
			"extraction": map[string]any{"blocked_reason": "query_capability_missing"},
			"query_trace": map[string]any{
				"error":                "query_capability_missing",
				"missing_capabilities": missing,
			},
		},
	}
}

// MissingCapabilities reports which of RequiredCapabilities caps lacks.
func MissingCapabilities(caps *capability.Registry) []string {
	var missing []string
	for _, id := range RequiredCapabilities {
		if caps == nil || !caps.Has(id) {
			missing = append(missing, id)
		}
	}
	return missing
}

// Hit is one search result. Run fills only Row and sets Score to 1 for
// every hit; it leaves SessionID empty, and the session appears only as
// the prefix of each citation id in Row.
type Hit struct {
	SessionID string         `json:"session_id"`
	Row       map[string]any `json:"row"`
	Score     int            `json:"score"`
}

func successResponse(text string, hits []Hit, arb ArbitrationResult) Response {
	return Response{
		OK: true,
		Answer: map[string]any{
			"state": "ok",
			"text":  text,
			"hits":  hits,
		},
		Processing: map[string]any{
			"extraction": map[string]any{"blocked_reason": ""},
			"query_trace": map[string]any{
				"providers_queried": arb.ProviderIDs(),
				"hit_count":         len(hits),
				"contributions":     arb.Contributions,
				"handoffs":          arb.Handoffs,
			},
		},
	}
}

// loadSearchableRows reconstructs the same concatenated ocr+element row
// set the ingest pipeline indexed, reading them back from NDJSON.
func loadSearchableRows(sessionDir string) ([]map[string]any, error) {
	var rows []map[string]any
	for _, table := range []string{"ocr_spans", "elements"} {
		part, err := readNDJSONRows(filepath.Join(sessionDir, table+".ndjson"))
		if err != nil {
			return nil, err
		}
		rows = append(rows, part...)
	}
	return rows, nil
}

func readNDJSONRows(path string) ([]map[string]any, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	dec := json.NewDecoder(bytes.NewReader(b))
	for {
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}
