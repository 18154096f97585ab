// Package spool implements the durable overflow spool that absorbs
// capture writes while the primary store is under disk pressure, and
// drains them back into canonical storage on recovery. Grounded on
// original_source/autocapture_nx/capture/overflow_spool.py; items are
// removed from the spool only after a caller-supplied commit confirms
// they landed in canonical storage.
package spool

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ninjra/autocapture-prime-sub005/internal/atomicfile"
	"github.com/ninjra/autocapture-prime-sub005/internal/config"
)

// Config mirrors OverflowSpoolConfig.from_config's storage.spool_overflow block.
type Config struct {
	Enabled        bool
	Root           string
	DrainIntervalS float64
	MaxDrainPerTick int
}

// FromConfig reads storage.spool_overflow from cfg, applying the same
// defaults and clamps as the original.
func FromConfig(cfg *config.Config) Config {
	root := strings.TrimSpace(cfg.GetString("storage.spool_overflow.dir", ""))
	drainInterval := cfg.GetFloat("storage.spool_overflow.drain_interval_s", 2.0)
	if drainInterval <= 0 {
		drainInterval = 2.0
	}
	maxDrain := cfg.GetInt("storage.spool_overflow.max_drain_per_tick", 50)
	if maxDrain <= 0 {
		maxDrain = 50
	}
	return Config{
		Enabled:         cfg.GetBool("storage.spool_overflow.enabled", false) && root != "",
		Root:            root,
		DrainIntervalS:  drainInterval,
		MaxDrainPerTick: maxDrain,
	}
}

// Item is a pending spool entry's metadata, persisted alongside its blob.
type Item struct {
	RecordID  string          `json:"record_id"`
	CreatedTs float64         `json:"created_ts"`
	BlobPath  string          `json:"blob_path"`
	Payload   json.RawMessage `json:"payload"`
}

// DrainFunc commits (meta, blob) into canonical storage, returning
// true only if it is now safe to delete the spooled copy.
type DrainFunc func(meta Item, blob []byte) bool

// DrainResult summarizes one drain_if_due call.
type DrainResult struct {
	Drained int  `json:"drained"`
	Pending int  `json:"pending"`
	Skipped int  `json:"skipped"`
	Enabled bool `json:"enabled"`
}

// Spool is the durable overflow spool. All mutating operations are
// serialized by mu so concurrent capture ticks and drain ticks never
// race on the same files.
type Spool struct {
	cfg       Config
	pendingDir string
	tmpDir     string
	mu        sync.Mutex
	lastDrain float64
}

// New constructs a Spool from cfg without touching the filesystem.
func New(cfg Config) *Spool {
	return &Spool{
		cfg:        cfg,
		pendingDir: filepath.Join(cfg.Root, "pending"),
		tmpDir:     filepath.Join(cfg.Root, "tmp"),
	}
}

// Enabled reports whether the spool is configured and active.
func (s *Spool) Enabled() bool { return s.cfg.Enabled }

func (s *Spool) ensureDirs() error {
	if !s.Enabled() {
		return nil
	}
	if err := os.MkdirAll(s.pendingDir, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(s.tmpDir, 0o755)
}

// PendingCount returns the number of spooled items awaiting drain.
func (s *Spool) PendingCount() int {
	if !s.Enabled() {
		return 0
	}
	entries, err := os.ReadDir(s.pendingDir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			n++
		}
	}
	return n
}

// WriteItem spools blob and its metadata atomically: the blob is
// written first so the metadata file, once present, always points at
// committed bytes.
func (s *Spool) WriteItem(recordID string, payload json.RawMessage, blob []byte, nowUnix float64) error {
	if !s.Enabled() {
		return fmt.Errorf("spool: overflow spool disabled")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureDirs(); err != nil {
		return err
	}

	safe := safeName(recordID)
	blobName := safe + ".png"
	metaName := safe + ".json"
	blobPath := filepath.Join(s.pendingDir, blobName)
	metaPath := filepath.Join(s.pendingDir, metaName)

	if err := atomicfile.WriteBytes(blobPath, blob); err != nil {
		return err
	}
	item := Item{RecordID: recordID, CreatedTs: nowUnix, BlobPath: blobName, Payload: payload}
	meta, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return atomicfile.WriteBytes(metaPath, meta)
}

// DrainIfDue drains up to MaxDrainPerTick pending items if at least
// DrainIntervalS seconds have elapsed since the previous drain.
func (s *Spool) DrainIfDue(nowUnix float64, drain DrainFunc) DrainResult {
	if !s.Enabled() {
		return DrainResult{Enabled: false}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if (nowUnix - s.lastDrain) < s.cfg.DrainIntervalS {
		return DrainResult{Pending: s.pendingCountLocked(), Enabled: true}
	}
	s.lastDrain = nowUnix
	if err := s.ensureDirs(); err != nil {
		return DrainResult{Enabled: true}
	}

	entries, err := os.ReadDir(s.pendingDir)
	if err != nil {
		return DrainResult{Enabled: true}
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) > s.cfg.MaxDrainPerTick {
		names = names[:s.cfg.MaxDrainPerTick]
	}

	drained, skipped := 0, 0
	for _, name := range names {
		metaPath := filepath.Join(s.pendingDir, name)
		raw, err := os.ReadFile(metaPath)
		if err != nil {
			skipped++
			continue
		}
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			skipped++
			continue
		}
		if strings.TrimSpace(item.BlobPath) == "" {
			skipped++
			continue
		}
		blobPath := filepath.Join(s.pendingDir, item.BlobPath)
		blob, err := os.ReadFile(blobPath)
		if err != nil {
			skipped++
			continue
		}
		if !drain(item, blob) {
			skipped++
			continue
		}
		os.Remove(metaPath)
		os.Remove(blobPath)
		drained++
	}

	return DrainResult{Drained: drained, Pending: s.pendingCountLocked(), Skipped: skipped, Enabled: true}
}

func (s *Spool) pendingCountLocked() int {
	entries, err := os.ReadDir(s.pendingDir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			n++
		}
	}
	return n
}

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
