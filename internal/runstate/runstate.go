// Package runstate persists run_state.json: the operator-facing
// record of what the capture/ingest run is currently doing, with
// timestamps normalized the same way across timezones and DST
// transitions. Grounded on
// original_source/autocapture_nx/kernel/run_state.py.
package runstate

import (
	"time"

	"github.com/ninjra/autocapture-prime-sub005/internal/atomicfile"
	"github.com/ninjra/autocapture-prime-sub005/internal/timebase"
)

// Payload mirrors RunStatePayload. Optional fields are pointers so
// "absent" round-trips as JSON null rather than a zero value.
type Payload struct {
	RunID           string   `json:"run_id"`
	State           string   `json:"state"`
	TsUTC           string   `json:"ts_utc"`
	Tzid            string   `json:"tzid"`
	OffsetMinutes   int      `json:"offset_minutes"`
	StartedAt       *string  `json:"started_at"`
	StoppedAt       *string  `json:"stopped_at"`
	LedgerHead      *string  `json:"ledger_head"`
	Locks           map[string]*string `json:"locks"`
	ConfigHash      *string  `json:"config_hash"`
	SafeMode        *bool    `json:"safe_mode"`
	SafeModeReason  *string  `json:"safe_mode_reason"`
}

// BuildOptions carries the optional inputs to Build; zero values mean "absent".
type BuildOptions struct {
	RunID          string
	State          string
	Tzid           string
	StartedAt      string
	StoppedAt      string
	LedgerHead     string
	Locks          map[string]*string
	ConfigHash     string
	SafeMode       *bool
	SafeModeReason string
	NowUTC         time.Time // zero means time.Now()
}

// Build constructs a Payload, normalizing timestamps the way
// build_run_state_payload does.
func Build(opts BuildOptions) Payload {
	tz := opts.Tzid
	if tz == "" {
		tz = "UTC"
	}
	base := opts.NowUTC
	if base.IsZero() {
		base = time.Now()
	}
	norm := timebase.NormalizeTime(tz, base)

	p := Payload{
		RunID:         opts.RunID,
		State:         opts.State,
		TsUTC:         norm.TsUTC,
		Tzid:          norm.Tzid,
		OffsetMinutes: norm.OffsetMinutes,
		Locks:         opts.Locks,
	}
	p.StartedAt = normalizeOptionalTs(opts.StartedAt)
	p.StoppedAt = normalizeOptionalTs(opts.StoppedAt)
	if opts.LedgerHead != "" {
		v := opts.LedgerHead
		p.LedgerHead = &v
	}
	if opts.ConfigHash != "" {
		v := opts.ConfigHash
		p.ConfigHash = &v
	}
	p.SafeMode = opts.SafeMode
	if opts.SafeModeReason != "" {
		v := opts.SafeModeReason
		p.SafeModeReason = &v
	}
	return p
}

// normalizeOptionalTs reformats value to UTC "Z" form when parseable,
// otherwise passes it through unchanged (never fails).
func normalizeOptionalTs(value string) *string {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05Z", value)
	}
	if err != nil {
		return &value
	}
	norm := timebase.UTCISOZ(t)
	return &norm
}

// Write atomically persists payload to path as two-space-indented JSON.
func Write(path string, payload Payload) error {
	return atomicfile.WriteJSON(path, payload)
}
