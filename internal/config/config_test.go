package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDottedPathAccessors(t *testing.T) {
	cfg := New(map[string]any{
		"storage": map[string]any{
			"data_dir": "data",
			"disk_pressure": map[string]any{
				"warn_free_gb": float64(200),
			},
		},
		"plugins": map[string]any{
			"allowlist": []any{"builtin.research_default"},
			"enabled":   map[string]any{"builtin.research_default": true},
		},
	})

	require.Equal(t, "data", cfg.GetString("storage.data_dir", "x"))
	require.Equal(t, 200, cfg.GetInt("storage.disk_pressure.warn_free_gb", -1))
	require.Equal(t, []string{"builtin.research_default"}, cfg.GetStringSlice("plugins.allowlist"))
	require.True(t, cfg.GetBoolMap("plugins.enabled")["builtin.research_default"])
	require.Equal(t, "fallback", cfg.GetString("missing.path", "fallback"))
}
