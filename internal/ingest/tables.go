package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// WriteRows persists rows as deterministic NDJSON (one sorted-key JSON
// object per line) under targetRoot/<tableName>.ndjson. No parquet
// writer ships in this module's dependency set, so every table uses
// the same NDJSON shape the kernel already uses for its ledger and
// journal files.
func WriteRows(rows []map[string]any, targetRoot, tableName string) (string, error) {
	if err := os.MkdirAll(targetRoot, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(targetRoot, tableName+".ndjson")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	for _, row := range rows {
		// encoding/json already emits map[string]any keys in sorted
		// order, matching the sort_keys=True behavior being mirrored.
		b, err := json.Marshal(row)
		if err != nil {
			return "", err
		}
		if _, err := f.Write(append(b, '\n')); err != nil {
			return "", err
		}
	}
	return path, nil
}
