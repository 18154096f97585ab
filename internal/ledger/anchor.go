package ledger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ninjra/autocapture-prime-sub005/internal/atomicfile"
)

// Anchor is a periodic Merkle root over a contiguous ledger window,
// optionally signed by the active anchor-purpose key (spec.md §3).
type Anchor struct {
	TsUTC      string `json:"ts_utc"`
	RootHash   string `json:"root_hash"`
	Signature  string `json:"signature,omitempty"`
	FromSeq    int64  `json:"from_sequence"`
	ToSeq      int64  `json:"to_sequence"`
}

// Signer produces a signature over a root hash, e.g. HMAC-SHA256
// keyed by the active anchor-purpose key. Nil means anchors are
// unsigned.
type Signer func(rootHash string) (string, error)

// HMACSigner returns a Signer using HMAC-SHA256 with key, matching the
// keyring's per-purpose subkey derivation (internal/keyring).
func HMACSigner(key []byte) Signer {
	return func(rootHash string) (string, error) {
		mac := hmac.New(sha256.New, key)
		if _, err := mac.Write([]byte(rootHash)); err != nil {
			return "", err
		}
		return hex.EncodeToString(mac.Sum(nil)), nil
	}
}

// merkleRoot computes a binary Merkle root over leaf hashes, using the
// Bitcoin-style convention of duplicating the final leaf when a level
// has an odd count. Arity is documented as an explicit open-question
// decision (binary, not N-ary).
func merkleRoot(leaves []string) string {
	if len(leaves) == 0 {
		return HashBytesHex(nil)
	}
	level := make([]string, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			h := sha256.New()
			h.Write([]byte(level[i]))
			h.Write([]byte(level[i+1]))
			next = append(next, hex.EncodeToString(h.Sum(nil)))
		}
		level = next
	}
	return level[0]
}

// HashBytesHex hashes b (or the empty byte string) with SHA-256.
func HashBytesHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// BuildAnchor computes an Anchor covering window (in ledger order),
// signing the root hash if sign is non-nil.
func BuildAnchor(tsUTC string, window []Entry, sign Signer) (Anchor, error) {
	if len(window) == 0 {
		return Anchor{}, fmt.Errorf("ledger: cannot anchor an empty window")
	}
	leaves := make([]string, len(window))
	for i, e := range window {
		leaves[i] = e.ThisHash
	}
	root := merkleRoot(leaves)
	a := Anchor{
		TsUTC:    tsUTC,
		RootHash: root,
		FromSeq:  window[0].Sequence,
		ToSeq:    window[len(window)-1].Sequence,
	}
	if sign != nil {
		sig, err := sign(root)
		if err != nil {
			return Anchor{}, err
		}
		a.Signature = sig
	}
	return a, nil
}

// AnchorWriter appends Anchors to a single NDJSON file.
type AnchorWriter struct {
	appender *atomicfile.NDJSONAppender
}

// OpenAnchorWriter opens (creating if needed) the anchor log at path.
func OpenAnchorWriter(path string) (*AnchorWriter, error) {
	appender, err := atomicfile.OpenNDJSONAppender(path)
	if err != nil {
		return nil, err
	}
	return &AnchorWriter{appender: appender}, nil
}

// Append writes one anchor record.
func (w *AnchorWriter) Append(a Anchor) error { return w.appender.Append(a) }

// Close flushes the underlying appender.
func (w *AnchorWriter) Close() error { return w.appender.Close() }

// VerifyAnchors recomputes each anchor's root hash over the
// corresponding ledger window and, if verify is non-nil, checks its
// signature. entries must be the full ledger in order.
func VerifyAnchors(anchors []Anchor, entries []Entry, verify func(rootHash, signature string) bool) (VerifyResult, error) {
	bySeq := make(map[int64]Entry, len(entries))
	for _, e := range entries {
		bySeq[e.Sequence] = e
	}
	for i, a := range anchors {
		var window []Entry
		for seq := a.FromSeq; seq <= a.ToSeq; seq++ {
			e, ok := bySeq[seq]
			if !ok {
				return VerifyResult{OK: false, Entries: i, Reason: "anchor_window_missing_entry"}, nil
			}
			window = append(window, e)
		}
		leaves := make([]string, len(window))
		for j, e := range window {
			leaves[j] = e.ThisHash
		}
		if merkleRoot(leaves) != a.RootHash {
			return VerifyResult{OK: false, Entries: i, Reason: "root_hash_mismatch"}, nil
		}
		if verify != nil && a.Signature != "" && !verify(a.RootHash, a.Signature) {
			return VerifyResult{OK: false, Entries: i, Reason: "signature_mismatch"}, nil
		}
	}
	return VerifyResult{OK: true, Entries: len(anchors)}, nil
}

// ReadAnchors loads every anchor record at path, in order.
func ReadAnchors(path string) ([]Anchor, error) {
	return readNDJSON[Anchor](path)
}
