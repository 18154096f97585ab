package storagetool

import (
	"path/filepath"
	"testing"

	"github.com/ninjra/autocapture-prime-sub005/internal/ledger"
	"github.com/stretchr/testify/require"
)

func TestForecastProjectsDecliningTrend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.ndjson")
	j, err := ledger.OpenJournal(path)
	require.NoError(t, err)

	require.NoError(t, j.Emit("2026-01-01T00:00:00Z", "disk.pressure", map[string]any{"free_bytes": 1000000000}))
	require.NoError(t, j.Emit("2026-01-02T00:00:00Z", "disk.pressure", map[string]any{"free_bytes": 900000000}))
	require.NoError(t, j.Emit("2026-01-03T00:00:00Z", "disk.pressure", map[string]any{"free_bytes": 800000000}))
	require.NoError(t, j.Close())

	report, err := Forecast(path)
	require.NoError(t, err)
	require.Equal(t, 3, report.Samples)
	require.Equal(t, "declining", report.Trend)
	require.Greater(t, report.DaysRemaining, 0.0)
}

func TestForecastInsufficientDataWithOneSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.ndjson")
	j, err := ledger.OpenJournal(path)
	require.NoError(t, err)
	require.NoError(t, j.Emit("2026-01-01T00:00:00Z", "disk.pressure", map[string]any{"free_bytes": 1000000000}))
	require.NoError(t, j.Close())

	report, err := Forecast(path)
	require.NoError(t, err)
	require.Equal(t, "insufficient_data", report.Trend)
}

func TestForecastMissingJournalReturnsZeroSamples(t *testing.T) {
	report, err := Forecast(filepath.Join(t.TempDir(), "missing.ndjson"))
	require.NoError(t, err)
	require.Equal(t, 0, report.Samples)
	require.Equal(t, "insufficient_data", report.Trend)
}
