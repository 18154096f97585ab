// Package media implements the content-addressed blob store described
// in spec.md §4.3: one file per record_id under a root directory,
// written atomically, with create-or-fail (PutNew) and idempotent
// (Put) variants.
package media

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ninjra/autocapture-prime-sub005/internal/atomicfile"
)

// ErrAlreadyExists is returned by PutNew when record_id is already present.
var ErrAlreadyExists = errors.New("media: already exists")

// Store is the interface shared by every blob-store backend
// (local filesystem, spillover router) so callers never need to know
// which backend they are talking to.
type Store interface {
	PutNew(recordID string, data []byte) error
	Put(recordID string, data []byte) error
	Get(recordID string) ([]byte, bool)
	Exists(recordID string) bool
	Count() (int, error)
}

// FileStore is the default Store: one content-addressed file per
// record under Root, keyed by a filesystem-safe encoding of record_id.
type FileStore struct {
	Root string
}

// New creates a FileStore rooted at root, creating the directory if needed.
func New(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{Root: root}, nil
}

func (s *FileStore) path(recordID string) string {
	return filepath.Join(s.Root, safeName(recordID)+".bin")
}

// PutNew writes data for recordID, failing with ErrAlreadyExists if present.
func (s *FileStore) PutNew(recordID string, data []byte) error {
	p := s.path(recordID)
	if _, err := os.Stat(p); err == nil {
		return ErrAlreadyExists
	}
	return atomicfile.WriteBytes(p, data)
}

// Put idempotently writes/overwrites data for recordID.
func (s *FileStore) Put(recordID string, data []byte) error {
	return atomicfile.WriteBytes(s.path(recordID), data)
}

// Get returns the bytes for recordID, or (nil, false) if absent.
func (s *FileStore) Get(recordID string) ([]byte, bool) {
	b, err := os.ReadFile(s.path(recordID))
	if err != nil {
		return nil, false
	}
	return b, true
}

// Exists reports whether recordID has a blob.
func (s *FileStore) Exists(recordID string) bool {
	_, err := os.Stat(s.path(recordID))
	return err == nil
}

// Count returns the number of blobs currently stored.
func (s *FileStore) Count() (int, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".bin") {
			n++
		}
	}
	return n, nil
}

// safeName encodes record_id (e.g. "run/frame/1") into a filesystem-safe
// name, preserving readability for debugging.
func safeName(recordID string) string {
	var b strings.Builder
	for _, r := range recordID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
