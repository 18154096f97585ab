// Package redact strips obvious secrets from strings and config-like
// structures before they reach a log line or an export boundary.
// Grounded on original_source/autocapture_nx/kernel/redaction.py.
package redact

import (
	"regexp"
	"strings"
)

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`),
	regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]+=*`),
	regexp.MustCompile(`-----BEGIN [A-Z0-9 ]*PRIVATE KEY-----`),
}

// sensitiveKeys mirrors the Python set exactly: tight and explicit so
// non-secret config values like "token_format" aren't swept up.
var sensitiveKeys = map[string]bool{
	"openai_api_key": true,
	"api_key":        true,
	"access_token":   true,
	"refresh_token":  true,
	"client_secret":  true,
	"authorization":  true,
}

// Text replaces any recognized secret pattern in s with "[REDACTED]".
func Text(s string) string {
	for _, p := range patterns {
		s = p.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}

// Obj walks obj (as produced by encoding/json unmarshaling into
// any — map[string]any, []any, and scalars) and redacts string
// leaves, blanking any value keyed by a known-sensitive key
// regardless of its type.
func Obj(obj any) any {
	switch v := obj.(type) {
	case nil, bool, float64, int, int64:
		return v
	case string:
		return Text(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = Obj(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			if sensitiveKeys[strings.ToLower(k)] {
				out[k] = "[REDACTED]"
				continue
			}
			out[k] = Obj(val)
		}
		return out
	default:
		return v
	}
}
