// Package spillover routes blob writes across an ordered list of
// media stores by disk-pressure severity, never deleting anything.
// Grounded on original_source/autocapture_nx/storage/spillover.py.
package spillover

import (
	"fmt"

	"github.com/ninjra/autocapture-prime-sub005/internal/config"
	"github.com/ninjra/autocapture-prime-sub005/internal/retention"
	"github.com/ninjra/autocapture-prime-sub005/internal/store/media"
)

// Backend pairs a root path with the store rooted there, so telemetry
// can name which root actually received a write.
type Backend struct {
	Path  string
	Store media.Store
}

// PressureFunc evaluates disk pressure for a given root path.
type PressureFunc func(path string) (retention.Decision, error)

// Telemetry receives spillover events (storage.media.spillover_write).
type Telemetry func(event string, fields map[string]any)

// Store routes PutNew/Put to the first backend that is strictly
// better off than the primary once the primary crosses the
// configured trigger level. Reads fall through every backend in
// order. It implements media.Store itself so callers never need to
// distinguish it from a plain FileStore.
type Store struct {
	backends  []Backend
	enabled   bool
	onLevel   retention.Level
	pressure  PressureFunc
	telemetry Telemetry
}

// New builds a spillover-aware store. backends[0] is always the
// primary; the config's storage.spillover.{enabled,on_level} govern
// whether/when writes route elsewhere.
func New(cfg *config.Config, backends []Backend, pressure PressureFunc, telemetry Telemetry) (*Store, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("spillover: no backends configured")
	}
	onLevel := retention.Level(cfg.GetString("storage.spillover.on_level", "soft"))
	switch onLevel {
	case retention.LevelWarn, retention.LevelSoft, retention.LevelCritical:
	default:
		onLevel = retention.LevelSoft
	}
	return &Store{
		backends:  backends,
		enabled:   cfg.GetBool("storage.spillover.enabled", false),
		onLevel:   onLevel,
		pressure:  pressure,
		telemetry: telemetry,
	}, nil
}

func (s *Store) pick() Backend {
	primary := s.backends[0]
	if !s.enabled || len(s.backends) == 1 || s.pressure == nil {
		return primary
	}
	primaryDecision, err := s.pressure(primary.Path)
	if err != nil {
		return primary
	}
	trigger := retention.Severity(s.onLevel)
	primarySev := retention.Severity(primaryDecision.Level)
	if primarySev < trigger {
		return primary
	}
	for _, b := range s.backends[1:] {
		decision, err := s.pressure(b.Path)
		if err != nil {
			continue
		}
		if retention.Severity(decision.Level) < primarySev {
			return b
		}
	}
	return primary
}

func (s *Store) emit(event, recordID, path string) {
	if s.telemetry == nil || path == s.backends[0].Path {
		return
	}
	s.telemetry(event, map[string]any{"record_id": recordID, "root": path})
}

// PutNew writes to the chosen backend, failing with
// media.ErrAlreadyExists if the record is already present there.
func (s *Store) PutNew(recordID string, data []byte) error {
	b := s.pick()
	if err := b.Store.PutNew(recordID, data); err != nil {
		return err
	}
	s.emit("storage.media.spillover_write", recordID, b.Path)
	return nil
}

// Put idempotently writes to the chosen backend.
func (s *Store) Put(recordID string, data []byte) error {
	b := s.pick()
	if err := b.Store.Put(recordID, data); err != nil {
		return err
	}
	s.emit("storage.media.spillover_write", recordID, b.Path)
	return nil
}

// Get falls through every backend in order.
func (s *Store) Get(recordID string) ([]byte, bool) {
	for _, b := range s.backends {
		if data, ok := b.Store.Get(recordID); ok {
			return data, true
		}
	}
	return nil, false
}

// Exists falls through every backend in order.
func (s *Store) Exists(recordID string) bool {
	for _, b := range s.backends {
		if b.Store.Exists(recordID) {
			return true
		}
	}
	return false
}

// Count sums counts across every backend.
func (s *Store) Count() (int, error) {
	total := 0
	for _, b := range s.backends {
		n, err := b.Store.Count()
		if err != nil {
			continue
		}
		total += n
	}
	return total, nil
}

var _ media.Store = (*Store)(nil)
