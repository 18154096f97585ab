// Package capture coordinates the independently startable capture
// components (screenshot, audio, input tracking, window metadata,
// cursor, clipboard, file activity, plus optional trackers) behind one
// Collector, grounded on
// original_source/tests/test_facade_start_components_startable_required.py
// and test_facade_start_components_optional_trackers.py.
package capture

import (
	"context"

	"github.com/ninjra/autocapture-prime-sub005/internal/capability"
	"github.com/ninjra/autocapture-prime-sub005/internal/config"
)

// Source is a capture component resolved from the capability registry.
// CanStart is a cheap readiness probe used to check every required
// component before starting any of them ("fail together").
type Source interface {
	Name() string
	CanStart() bool
	Start(ctx context.Context) error
	Stop() error
}

// ComponentSpec binds a capability id to the config path that gates
// whether it is required this run. An empty EnabledPath means the
// component is always required when present in the registry.
type ComponentSpec struct {
	CapabilityID string
	EnabledPath  string
	Optional     bool
}

// DefaultComponents matches spec.md §4.10's component naming, as
// expanded in SPEC_FULL.md §4.10.
var DefaultComponents = []ComponentSpec{
	{CapabilityID: "capture.source"},
	{CapabilityID: "capture.screenshot", EnabledPath: "capture.screenshot.enabled"},
	{CapabilityID: "capture.audio", EnabledPath: "capture.audio.enabled"},
	{CapabilityID: "tracking.input"},
	{CapabilityID: "window.metadata"},
	{CapabilityID: "tracking.cursor", EnabledPath: "capture.cursor.enabled", Optional: true},
	{CapabilityID: "tracking.clipboard", EnabledPath: "capture.clipboard.enabled", Optional: true},
	{CapabilityID: "tracking.file_activity", EnabledPath: "capture.file_activity.enabled", Optional: true},
}

// ComponentError reports why one required component could not start.
type ComponentError struct {
	Component string `json:"component"`
	Reason    string `json:"reason"`
}

// Result is the facade-facing outcome of Collector.Start.
type Result struct {
	OK     bool             `json:"ok"`
	Error  string           `json:"error,omitempty"`
	Errors []ComponentError `json:"errors,omitempty"`
}

// Collector resolves and starts/stops capture components.
type Collector struct {
	caps       *capability.Registry
	cfg        *config.Config
	components []ComponentSpec
	started    []Source
}

// NewCollector builds a Collector over the default component table.
func NewCollector(caps *capability.Registry, cfg *config.Config) *Collector {
	return &Collector{caps: caps, cfg: cfg, components: DefaultComponents}
}

func (c *Collector) enabled(spec ComponentSpec) bool {
	if spec.EnabledPath == "" {
		return true
	}
	return c.cfg.GetBool(spec.EnabledPath, false)
}

// Start probes every enabled required component's startability before
// starting any of them; if any required component cannot start, none
// are started and Result.OK is false. Optional trackers are
// best-effort: a missing or failing optional component is recorded
// but never flips Result.OK.
func (c *Collector) Start(ctx context.Context) Result {
	var required []Source
	var errs []ComponentError

	for _, spec := range c.components {
		if spec.Optional || !c.enabled(spec) {
			continue
		}
		src, reason := c.resolve(spec)
		if reason != "" {
			errs = append(errs, ComponentError{Component: spec.CapabilityID, Reason: reason})
			continue
		}
		required = append(required, src)
	}
	if len(errs) > 0 {
		return Result{OK: false, Error: "component_start_failed", Errors: errs}
	}

	var optionalErrs []ComponentError
	var optional []Source
	for _, spec := range c.components {
		if !spec.Optional || !c.enabled(spec) {
			continue
		}
		src, reason := c.resolve(spec)
		if reason != "" {
			optionalErrs = append(optionalErrs, ComponentError{Component: spec.CapabilityID, Reason: reason})
			continue
		}
		optional = append(optional, src)
	}

	c.started = nil
	for _, src := range required {
		if err := src.Start(ctx); err != nil {
			// A required component that passes the startability probe
			// but still fails to actually start is fatal, same as a
			// resolve failure: stop whatever already started and fail
			// the whole collector rather than silently dropping it.
			c.Stop()
			return Result{
				OK:     false,
				Error:  "component_start_failed",
				Errors: []ComponentError{{Component: src.Name(), Reason: err.Error()}},
			}
		}
		c.started = append(c.started, src)
	}
	for _, src := range optional {
		if err := src.Start(ctx); err != nil {
			optionalErrs = append(optionalErrs, ComponentError{Component: src.Name(), Reason: err.Error()})
			continue
		}
		c.started = append(c.started, src)
	}

	return Result{OK: true, Errors: optionalErrs}
}

func (c *Collector) resolve(spec ComponentSpec) (Source, string) {
	if c.caps == nil {
		return nil, "capability_missing"
	}
	raw, ok := c.caps.Get(spec.CapabilityID)
	if !ok {
		return nil, "capability_missing"
	}
	src, ok := raw.(Source)
	if !ok {
		return nil, "not_startable"
	}
	if !src.CanStart() {
		return nil, "not_startable"
	}
	return src, ""
}

// Stop stops every component started by the most recent Start call.
func (c *Collector) Stop() {
	for _, src := range c.started {
		_ = src.Stop()
	}
	c.started = nil
}

// Active reports whether any component is currently running.
func (c *Collector) Active() bool {
	return len(c.started) > 0
}
