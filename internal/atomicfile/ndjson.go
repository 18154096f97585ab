package atomicfile

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// NDJSONAppender appends one JSON-encoded record per line to a file,
// fsyncing after every write so that a crash never leaves a partial
// trailing line unflushed to disk.
type NDJSONAppender struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *bufio.Writer
}

// OpenNDJSONAppender opens (creating if needed) path for append.
func OpenNDJSONAppender(path string) (*NDJSONAppender, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &NDJSONAppender{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

// Append marshals v with encoding/json (map keys sorted) and appends
// it as one line.
func (a *NDJSONAppender) Append(v any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := a.w.Write(b); err != nil {
		return err
	}
	if err := a.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := a.w.Flush(); err != nil {
		return err
	}
	return a.f.Sync()
}

// Close flushes and closes the underlying file.
func (a *NDJSONAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.w.Flush(); err != nil {
		_ = a.f.Close()
		return err
	}
	return a.f.Close()
}
