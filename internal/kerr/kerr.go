// Package kerr defines the domain-level error kinds shared across the
// kernel. Components wrap underlying errors with a Kind so that the
// façade boundary can render a deterministic JSON payload without
// inspecting error strings.
package kerr

import (
	"errors"
	"fmt"
)

// Kind tags an error with the domain-level category from spec.md §7.
type Kind string

const (
	Config            Kind = "ConfigError"
	ConsentRequired   Kind = "ConsentRequired"
	CapabilityMissing Kind = "CapabilityMissing"
	DiskPressure      Kind = "DiskPressure"
	Corruption        Kind = "Corruption"
	TransientIO       Kind = "TransientIO"
	PluginLoadFailed  Kind = "PluginLoadFailed"
	Timeout           Kind = "Timeout"
	SpoolDrainSkip    Kind = "SpoolDrainSkip"
)

// Error wraps an underlying cause with a Kind and a stable Code used
// for deterministic JSON payloads (e.g. "query_capability_missing").
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs a tagged error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap tags an existing error with a Kind and Code.
func Wrap(kind Kind, code string, cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

// As extracts a *Error from err, if present in its chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf returns the stable Code of err if it (or something it wraps)
// is a *Error, else "".
func CodeOf(err error) string {
	if k, ok := As(err); ok {
		return k.Code
	}
	return ""
}

// KindOf returns the Kind of err if it (or something it wraps) is a
// *Error, else the empty Kind.
func KindOf(err error) Kind {
	if k, ok := As(err); ok {
		return k.Kind
	}
	return ""
}
