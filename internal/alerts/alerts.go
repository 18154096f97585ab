// Package alerts derives operator-facing alerts from journal events,
// matching a configurable rule table keyed by event type. Grounded on
// original_source/autocapture_nx/kernel/alerts.py.
package alerts

import (
	"encoding/json"
	"strconv"

	"github.com/ninjra/autocapture-prime-sub005/internal/config"
)

// Rule describes how one journal event type renders as an alert.
type Rule struct {
	Severity string `json:"severity"`
	Title    string `json:"title"`
}

// DefaultRules is the built-in event_type -> Rule table.
var DefaultRules = map[string]Rule{
	"disk.pressure":                   {Severity: "warning", Title: "Disk pressure"},
	"disk.critical":                   {Severity: "critical", Title: "Disk critical"},
	"capture.drop":                    {Severity: "warning", Title: "Capture dropped"},
	"capture.degrade":                 {Severity: "warning", Title: "Capture degraded"},
	"capture.restore":                 {Severity: "info", Title: "Capture restored"},
	"capture.halt_disk":               {Severity: "critical", Title: "CAPTURE HALTED: DISK LOW"},
	"capture.backend_fallback":        {Severity: "warning", Title: "Capture backend fallback"},
	"capture.silence":                 {Severity: "critical", Title: "Capture silent while active"},
	"processing.watchdog.stalled":     {Severity: "critical", Title: "Processing watchdog stalled"},
	"processing.watchdog.error":       {Severity: "warning", Title: "Processing watchdog error"},
	"processing.watchdog.restore":     {Severity: "info", Title: "Processing watchdog restored"},
}

// Event is the subset of a journal event alert derivation reads.
type Event struct {
	EventID  string          `json:"event_id,omitempty"`
	Sequence int64           `json:"sequence,omitempty"`
	EventType string         `json:"event_type"`
	TsUTC    string          `json:"ts_utc"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Alert is one derived, operator-facing alert.
type Alert struct {
	AlertID   string          `json:"alert_id"`
	EventType string          `json:"event_type"`
	Severity  string          `json:"severity"`
	Title     string          `json:"title"`
	TsUTC     string          `json:"ts_utc"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// rules merges alerts.rules from cfg over DefaultRules.
func rules(cfg *config.Config) map[string]Rule {
	merged := make(map[string]Rule, len(DefaultRules))
	for k, v := range DefaultRules {
		merged[k] = v
	}
	raw, ok := cfg.Get("alerts.rules").(map[string]any)
	if !ok {
		return merged
	}
	for k, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		r := merged[k]
		if sev, ok := m["severity"].(string); ok {
			r.Severity = sev
		}
		if title, ok := m["title"].(string); ok {
			r.Title = title
		}
		merged[k] = r
	}
	return merged
}

// Derive turns events into alerts according to cfg's alerts.{enabled,
// max_records, rules}. Events with no matching rule are dropped.
func Derive(cfg *config.Config, events []Event) []Alert {
	if !cfg.GetBool("alerts.enabled", true) {
		return nil
	}
	maxRecords := cfg.GetInt("alerts.max_records", 0)
	if maxRecords > 0 && len(events) > maxRecords {
		events = events[len(events)-maxRecords:]
	}
	rs := rules(cfg)

	var out []Alert
	for _, e := range events {
		if e.EventType == "" {
			continue
		}
		rule, ok := rs[e.EventType]
		if !ok {
			continue
		}
		alertID := e.EventID
		if alertID == "" && e.Sequence != 0 {
			alertID = strconv.FormatInt(e.Sequence, 10)
		}
		if alertID == "" {
			alertID = e.EventType
		}
		out = append(out, Alert{
			AlertID:   alertID,
			EventType: e.EventType,
			Severity:  rule.Severity,
			Title:     rule.Title,
			TsUTC:     e.TsUTC,
			Payload:   e.Payload,
		})
	}
	return out
}
