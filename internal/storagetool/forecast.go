package storagetool

import (
	"encoding/json"
	"time"

	"github.com/ninjra/autocapture-prime-sub005/internal/ledger"
)

// pressureFields is the subset of a disk.pressure journal event's
// payload Forecast reads; the rest of retention.Decision's fields are
// ignored.
type pressureFields struct {
	FreeBytes int64 `json:"free_bytes"`
}

// ForecastReport is a linear-trend projection of remaining disk
// capacity from a run of disk.pressure journal events.
type ForecastReport struct {
	Samples          int     `json:"samples"`
	CurrentFreeBytes int64   `json:"current_free_bytes"`
	BytesPerDay      float64 `json:"bytes_per_day"`
	DaysRemaining    float64 `json:"days_remaining"`
	Trend            string  `json:"trend"`
}

const timeLayout = "2006-01-02T15:04:05.999999999Z"

// Forecast reads every disk.pressure event from the journal at path
// and fits a simple linear trend (bytes free vs. elapsed seconds) to
// project how many days remain until free space reaches zero. Fewer
// than two samples yields a zero-confidence report with Trend
// "insufficient_data".
func Forecast(journalPath string) (ForecastReport, error) {
	events, err := ledger.ReadJournal(journalPath)
	if err != nil {
		return ForecastReport{}, err
	}

	type point struct {
		t     time.Time
		bytes int64
	}
	var points []point
	for _, e := range events {
		if e.Event != "disk.pressure" || len(e.Fields) == 0 {
			continue
		}
		ts, err := time.Parse(timeLayout, e.TsUTC)
		if err != nil {
			continue
		}
		var f pressureFields
		if err := json.Unmarshal(e.Fields, &f); err != nil {
			continue
		}
		points = append(points, point{t: ts, bytes: f.FreeBytes})
	}

	report := ForecastReport{Samples: len(points)}
	if len(points) == 0 {
		report.Trend = "insufficient_data"
		return report, nil
	}
	report.CurrentFreeBytes = points[len(points)-1].bytes
	if len(points) < 2 {
		report.Trend = "insufficient_data"
		return report, nil
	}

	// Ordinary least squares slope of free-bytes over elapsed seconds
	// since the first sample.
	t0 := points[0].t
	var n, sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		x := p.t.Sub(t0).Seconds()
		y := float64(p.bytes)
		n++
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		report.Trend = "insufficient_data"
		return report, nil
	}
	slopePerSec := (n*sumXY - sumX*sumY) / denom
	report.BytesPerDay = slopePerSec * 86400

	switch {
	case report.BytesPerDay >= 0:
		report.Trend = "stable_or_improving"
		report.DaysRemaining = -1
	default:
		report.Trend = "declining"
		report.DaysRemaining = float64(report.CurrentFreeBytes) / -report.BytesPerDay
	}
	return report, nil
}
