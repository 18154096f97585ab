package spillover

import (
	"testing"

	"github.com/ninjra/autocapture-prime-sub005/internal/config"
	"github.com/ninjra/autocapture-prime-sub005/internal/retention"
	"github.com/ninjra/autocapture-prime-sub005/internal/store/media"
	"github.com/stretchr/testify/require"
)

func mustStore(t *testing.T) media.Store {
	t.Helper()
	s, err := media.New(t.TempDir())
	require.NoError(t, err)
	return s
}

// TestSoftTriggerSpillsToBetterBackend covers testable property 6:
// primary at "soft" with on_level=soft routes to the first eligible
// backend.
func TestSoftTriggerSpillsToBetterBackend(t *testing.T) {
	primary := Backend{Path: "/primary", Store: mustStore(t)}
	secondary := Backend{Path: "/secondary", Store: mustStore(t)}
	cfg := config.New(map[string]any{
		"storage": map[string]any{"spillover": map[string]any{"enabled": true, "on_level": "soft"}},
	})
	pressure := func(path string) (retention.Decision, error) {
		if path == "/primary" {
			return retention.Decision{Level: retention.LevelSoft}, nil
		}
		return retention.Decision{Level: retention.LevelOK}, nil
	}
	store, err := New(cfg, []Backend{primary, secondary}, pressure, nil)
	require.NoError(t, err)

	require.NoError(t, store.Put("rec-1", []byte("x")))
	require.True(t, secondary.Store.Exists("rec-1"))
	require.False(t, primary.Store.Exists("rec-1"))
}

// TestHigherTriggerKeepsPrimary covers the other half of property 6:
// primary at "soft" with on_level=critical keeps writing to primary.
func TestHigherTriggerKeepsPrimary(t *testing.T) {
	primary := Backend{Path: "/primary", Store: mustStore(t)}
	secondary := Backend{Path: "/secondary", Store: mustStore(t)}
	cfg := config.New(map[string]any{
		"storage": map[string]any{"spillover": map[string]any{"enabled": true, "on_level": "critical"}},
	})
	pressure := func(path string) (retention.Decision, error) {
		if path == "/primary" {
			return retention.Decision{Level: retention.LevelSoft}, nil
		}
		return retention.Decision{Level: retention.LevelOK}, nil
	}
	store, err := New(cfg, []Backend{primary, secondary}, pressure, nil)
	require.NoError(t, err)

	require.NoError(t, store.Put("rec-1", []byte("x")))
	require.True(t, primary.Store.Exists("rec-1"))
	require.False(t, secondary.Store.Exists("rec-1"))
}

func TestGetFallsThroughBackends(t *testing.T) {
	primary := Backend{Path: "/primary", Store: mustStore(t)}
	secondary := Backend{Path: "/secondary", Store: mustStore(t)}
	require.NoError(t, secondary.Store.Put("only-in-secondary", []byte("y")))
	cfg := config.New(nil)
	store, err := New(cfg, []Backend{primary, secondary}, nil, nil)
	require.NoError(t, err)

	got, ok := store.Get("only-in-secondary")
	require.True(t, ok)
	require.Equal(t, "y", string(got))
}

func TestTelemetryFiresOnlyOnNonPrimaryWrite(t *testing.T) {
	primary := Backend{Path: "/primary", Store: mustStore(t)}
	secondary := Backend{Path: "/secondary", Store: mustStore(t)}
	var events []string
	cfg := config.New(map[string]any{
		"storage": map[string]any{"spillover": map[string]any{"enabled": true, "on_level": "soft"}},
	})
	pressure := func(path string) (retention.Decision, error) {
		if path == "/primary" {
			return retention.Decision{Level: retention.LevelOK}, nil
		}
		return retention.Decision{Level: retention.LevelOK}, nil
	}
	store, err := New(cfg, []Backend{primary, secondary}, pressure, func(event string, _ map[string]any) {
		events = append(events, event)
	})
	require.NoError(t, err)
	require.NoError(t, store.Put("rec-1", []byte("x")))
	require.Empty(t, events)
}
