// Package canon provides the canonical JSON encoding used throughout
// the kernel for content hashing and byte-for-byte reproducible
// output: object keys sorted lexicographically, non-ASCII characters
// escaped as \uXXXX, no HTML escaping, and no trailing newline.
package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Marshal renders v as canonical JSON: map keys sorted, non-ASCII
// escaped, HTML escaping disabled. encoding/json already sorts map[string]T keys when
// marshaling; sortedCopy additionally walks nested map[string]any and
// []any values before encoding.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sortedCopy(v)); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	// json.Encoder appends a trailing newline; strip it for stable hashing.
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	// Escape every non-ASCII rune as \uXXXX (a UTF-16 surrogate pair above
	// U+FFFF) so the output is pure ASCII.
	var ascii bytes.Buffer
	for _, r := range string(out) {
		if r < utf8.RuneSelf {
			ascii.WriteByte(byte(r))
			continue
		}
		for _, u := range utf16.Encode([]rune{r}) {
			fmt.Fprintf(&ascii, `\u%04x`, u)
		}
	}
	return ascii.Bytes(), nil
}

// sortedCopy recursively copies map[string]any and []any values so
// that map keys are canonically ordered regardless of input iteration
// order. Any other value, including structs, is returned as-is since
// encoding/json already emits struct fields in declared (stable) order.
func sortedCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(t))
		for _, k := range keys {
			out[k] = sortedCopy(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = sortedCopy(e)
		}
		return out
	default:
		return v
	}
}

// Hash returns the lowercase hex SHA-256 digest of the canonical JSON
// encoding of v.
func Hash(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// HashBytes returns the lowercase hex SHA-256 digest of b directly.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
