package spool

import (
	"path/filepath"
	"testing"

	"github.com/ninjra/autocapture-prime-sub005/internal/config"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	return config.New(map[string]any{
		"storage": map[string]any{
			"spool_overflow": map[string]any{
				"enabled":            true,
				"dir":                root,
				"drain_interval_s":   0.0,
				"max_drain_per_tick": 10,
			},
		},
	})
}

func TestWriteItemThenDrainCommitsAndEmpties(t *testing.T) {
	root := filepath.Join(t.TempDir(), "spool")
	sp := New(FromConfig(testConfig(t, root)))
	require.True(t, sp.Enabled())

	require.NoError(t, sp.WriteItem("rec-1", []byte(`{"w":1}`), []byte("blob-bytes"), 100.0))
	require.Equal(t, 1, sp.PendingCount())

	var committed []Item
	result := sp.DrainIfDue(200.0, func(meta Item, blob []byte) bool {
		committed = append(committed, meta)
		return string(blob) == "blob-bytes"
	})

	require.Equal(t, 1, result.Drained)
	require.Equal(t, 0, result.Skipped)
	require.Equal(t, 0, result.Pending)
	require.Equal(t, 0, sp.PendingCount())
	require.Len(t, committed, 1)
	require.Equal(t, "rec-1", committed[0].RecordID)
}

func TestDrainNotYetDueLeavesItemsPending(t *testing.T) {
	root := filepath.Join(t.TempDir(), "spool")
	cfg := testConfig(t, root)
	sp := New(FromConfig(cfg))
	sp.cfg.DrainIntervalS = 100.0

	require.NoError(t, sp.WriteItem("rec-1", []byte(`{}`), []byte("b"), 0.0))
	called := false
	result := sp.DrainIfDue(1.0, func(Item, []byte) bool { called = true; return true })

	require.False(t, called)
	require.Equal(t, 0, result.Drained)
	require.Equal(t, 1, result.Pending)
	require.Equal(t, 1, sp.PendingCount())
}

func TestDrainFailureKeepsItemSpooled(t *testing.T) {
	root := filepath.Join(t.TempDir(), "spool")
	sp := New(FromConfig(testConfig(t, root)))

	require.NoError(t, sp.WriteItem("rec-1", []byte(`{}`), []byte("b"), 0.0))
	result := sp.DrainIfDue(10.0, func(Item, []byte) bool { return false })

	require.Equal(t, 0, result.Drained)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, 1, sp.PendingCount())
}

func TestDisabledSpoolRejectsWrites(t *testing.T) {
	cfg := config.New(nil)
	sp := New(FromConfig(cfg))
	require.False(t, sp.Enabled())
	require.Error(t, sp.WriteItem("rec-1", []byte(`{}`), []byte("b"), 0.0))
}

func TestMaxDrainPerTickLimitsBatch(t *testing.T) {
	root := filepath.Join(t.TempDir(), "spool")
	cfg := config.New(map[string]any{
		"storage": map[string]any{
			"spool_overflow": map[string]any{
				"enabled":            true,
				"dir":                root,
				"drain_interval_s":   0.0,
				"max_drain_per_tick": 2,
			},
		},
	})
	sp := New(FromConfig(cfg))
	for i := 0; i < 5; i++ {
		require.NoError(t, sp.WriteItem(string(rune('a'+i)), []byte(`{}`), []byte("b"), float64(i)))
	}
	result := sp.DrainIfDue(100.0, func(Item, []byte) bool { return true })
	require.Equal(t, 2, result.Drained)
	require.Equal(t, 3, result.Pending)
}
