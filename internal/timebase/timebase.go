// Package timebase normalizes timestamps to UTC with a stable "Z"
// suffix and tracks the timezone id / offset used for local
// interpretation, matching original_source/autocapture_nx/kernel/timebase.py.
package timebase

import "time"

// UTCNowZ returns the current instant in UTC, ISO 8601 with a "Z" suffix.
func UTCNowZ() string {
	return UTCISOZ(time.Now().UTC())
}

// UTCISOZ formats t (converted to UTC) as RFC3339 with fractional
// seconds trimmed to whatever time.RFC3339Nano produces, replacing the
// "+00:00"-style offset with a literal "Z".
func UTCISOZ(t time.Time) string {
	u := t.UTC()
	return u.Format("2006-01-02T15:04:05.999999999Z")
}

// TZOffsetMinutes returns the UTC offset, in minutes, of tzid at the
// instant atUTC. Unknown zone ids return 0 rather than failing
// ("fail closed" without blocking normalization).
func TZOffsetMinutes(tzid string, atUTC time.Time) int {
	if tzid == "" || tzid == "UTC" {
		return 0
	}
	loc, err := time.LoadLocation(tzid)
	if err != nil {
		return 0
	}
	_, offsetSec := atUTC.In(loc).Zone()
	return offsetSec / 60
}

// Normalized is the result of normalizing an instant against a named
// timezone: a UTC timestamp plus the timezone id and its offset at
// that instant (so DST transitions are recorded explicitly).
type Normalized struct {
	TsUTC          string `json:"ts_utc"`
	Tzid           string `json:"tzid"`
	OffsetMinutes  int    `json:"offset_minutes"`
}

// NormalizeTime normalizes atUTC (or time.Now() when zero) against tzid.
func NormalizeTime(tzid string, atUTC time.Time) Normalized {
	if tzid == "" {
		tzid = "UTC"
	}
	if atUTC.IsZero() {
		atUTC = time.Now()
	}
	base := atUTC.UTC()
	return Normalized{
		TsUTC:         UTCISOZ(base),
		Tzid:          tzid,
		OffsetMinutes: TZOffsetMinutes(tzid, base),
	}
}
