// Package keyring implements per-purpose key storage and atomic root
// key rotation, grounded on
// original_source/autocapture_nx/kernel/key_rotation.py. Rotation spans
// four purposes — metadata, media, entity_tokens, anchor — and rolls
// every purpose back to its prior key id if any single step fails.
package keyring

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ninjra/autocapture-prime-sub005/internal/ledger"
)

// Purposes lists the four key purposes rotation spans, in the order
// the original rotates them.
var Purposes = []string{"metadata", "media", "entity_tokens", "anchor"}

// Keyring holds one active key id and one derived key per purpose,
// plus the history needed to roll back a failed rotation.
type Keyring struct {
	mu     sync.Mutex
	active map[string]string
	keys   map[string]map[string][]byte // purpose -> key_id -> root key bytes
}

// New builds an empty in-memory keyring. Callers typically seed it via
// Rotate before first use.
func New() *Keyring {
	return &Keyring{
		active: map[string]string{},
		keys:   map[string]map[string][]byte{},
	}
}

// ActiveKeyIDFor returns the currently active key id for purpose, or
// "" if none has been generated yet.
func (k *Keyring) ActiveKeyIDFor(purpose string) string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.active[purpose]
}

// KeyFor returns the raw root key bytes for purpose/keyID.
func (k *Keyring) KeyFor(purpose, keyID string) ([]byte, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.keys[purpose]
	if !ok {
		return nil, false
	}
	key, ok := m[keyID]
	return key, ok
}

// Rotate generates a new random root key for purpose, makes it
// active, and returns its id. The old key remains retrievable so
// SetActive can roll back.
func (k *Keyring) Rotate(purpose string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	keyID := hex.EncodeToString(raw[:8])

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.keys[purpose] == nil {
		k.keys[purpose] = map[string][]byte{}
	}
	k.keys[purpose][keyID] = raw
	k.active[purpose] = keyID
	return keyID, nil
}

// SetActive makes keyID the active key for purpose without generating
// a new one (used for rollback).
func (k *Keyring) SetActive(purpose, keyID string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if keyID == "" {
		delete(k.active, purpose)
		return nil
	}
	if _, ok := k.keys[purpose][keyID]; !ok {
		return fmt.Errorf("keyring: unknown key id %q for purpose %q", keyID, purpose)
	}
	k.active[purpose] = keyID
	return nil
}

// DeriveKey derives a purpose-scoped subkey from a root key via
// HMAC-SHA256, matching the original's derive_key(root, purpose).
func DeriveKey(root []byte, purpose string) []byte {
	mac := hmac.New(sha256.New, root)
	mac.Write([]byte(purpose))
	return mac.Sum(nil)
}

// Rotatable is implemented by any store that can accept a new derived
// key in place (metadata DB encryption key, media store key, entity
// token map key).
type Rotatable interface {
	Rotate(newKey []byte) error
}

// RotationResult mirrors rotate_root_key's return payload.
type RotationResult struct {
	OK          bool              `json:"ok"`
	Error       string            `json:"error,omitempty"`
	OldKeyIDs   map[string]string `json:"old_key_ids"`
	NewKeyIDs   map[string]string `json:"new_key_ids,omitempty"`
	Rotated     []string          `json:"rotated,omitempty"`
	LedgerHash  string            `json:"ledger_hash,omitempty"`
}

// Rotate performs an atomic rotation across Purposes, calling
// stores[purpose].Rotate(derivedKey) for every store present in
// stores. On any failure it restores every purpose's previous active
// key id, emits a key_rotation.rollback journal event, and returns
// OK=false without touching the ledger. On success it appends a
// "security" ledger entry and a key_rotation.commit journal event.
func Rotate(kr *Keyring, stores map[string]Rotatable, led *ledger.Writer, journal *ledger.Journal, actor, nowUTC string) (RotationResult, error) {
	oldIDs := make(map[string]string, len(Purposes))
	for _, p := range Purposes {
		oldIDs[p] = kr.ActiveKeyIDFor(p)
	}

	newIDs := make(map[string]string, len(Purposes))
	var rotatedStores []string
	rollback := func(cause error) (RotationResult, error) {
		for purpose, keyID := range oldIDs {
			_ = kr.SetActive(purpose, keyID)
		}
		if journal != nil {
			_ = journal.Emit(nowUTC, "key_rotation.rollback", map[string]any{"error": cause.Error()})
		}
		return RotationResult{OK: false, Error: cause.Error(), OldKeyIDs: oldIDs}, nil
	}

	for _, purpose := range Purposes {
		keyID, err := kr.Rotate(purpose)
		if err != nil {
			return rollback(err)
		}
		newIDs[purpose] = keyID
	}

	for purpose, store := range stores {
		keyID, ok := newIDs[purpose]
		if !ok {
			continue
		}
		rootKey, ok := kr.KeyFor(purpose, keyID)
		if !ok {
			return rollback(fmt.Errorf("keyring: missing root key for purpose %q", purpose))
		}
		if err := store.Rotate(DeriveKey(rootKey, purpose)); err != nil {
			return rollback(fmt.Errorf("rotate %s: %w", purpose, err))
		}
		rotatedStores = append(rotatedStores, purpose)
	}

	var ledgerHash string
	if led != nil {
		entry, err := led.Append(nowUTC, "security", valuesOf(oldIDs), valuesOf(newIDs), mustPayload(map[string]any{
			"event":        "key_rotation",
			"actor":        actor,
			"old_key_ids":  oldIDs,
			"new_key_ids":  newIDs,
		}))
		if err != nil {
			return rollback(err)
		}
		ledgerHash = entry.ThisHash
	}
	if journal != nil {
		_ = journal.Emit(nowUTC, "key_rotation.commit", map[string]any{"old_key_ids": oldIDs, "new_key_ids": newIDs})
	}

	return RotationResult{
		OK:         true,
		OldKeyIDs:  oldIDs,
		NewKeyIDs:  newIDs,
		Rotated:    rotatedStores,
		LedgerHash: ledgerHash,
	}, nil
}

func valuesOf(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func mustPayload(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
