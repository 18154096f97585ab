// Package atomicfile implements the temp-file + fsync + rename write
// guard used for every durable JSON/state file in the kernel, plus a
// line-buffered NDJSON appender. Grounded on
// original_source/autocapture_nx/kernel/atomic_write.py.
package atomicfile

import (
	"encoding/json"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// WriteBytes atomically writes data to path: it creates a sibling
// temp file under path's directory, writes+fsyncs it, renames it over
// path, then fsyncs the parent directory. On any failure the temp
// file is removed and path is left untouched.
func WriteBytes(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	tmpPath = "" // committed; nothing left to remove
	fsyncDir(dir)
	return nil
}

// WriteText is WriteBytes for strings.
func WriteText(path string, text string) error {
	return WriteBytes(path, []byte(text))
}

// WriteJSON marshals v as two-space-indented JSON (map keys sorted)
// and atomically writes it to path.
func WriteJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return WriteBytes(path, b)
}

func fsyncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		log.WithError(err).WithField("dir", dir).Debug("atomicfile: directory fsync failed")
	}
}
