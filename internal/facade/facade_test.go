package facade

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ninjra/autocapture-prime-sub005/internal/capability"
	"github.com/ninjra/autocapture-prime-sub005/internal/config"
	"github.com/ninjra/autocapture-prime-sub005/internal/ledger"
	"github.com/stretchr/testify/require"
)

type okSource struct{ name string }

func (s okSource) Name() string                       { return s.name }
func (s okSource) CanStart() bool                      { return true }
func (s okSource) Start(context.Context) error         { return nil }
func (s okSource) Stop() error                         { return nil }

func fullCaps() *capability.Registry {
	caps := capability.New()
	caps.Register("capture.source", okSource{name: "capture.source"})
	caps.Register("tracking.input", okSource{name: "tracking.input"})
	caps.Register("window.metadata", okSource{name: "window.metadata"})
	return caps
}

func TestRunStartSucceedsWithoutConsentRequirement(t *testing.T) {
	f := New(Options{Config: config.New(map[string]any{}), Capabilities: fullCaps()})
	result := f.RunStart(context.Background())
	require.True(t, result.OK)
	require.True(t, f.Status()["capture_active"].(bool))
}

func TestRunStartBlockedWhenConsentRequiredAndNotAccepted(t *testing.T) {
	dataDir := t.TempDir()
	cfg := config.New(map[string]any{
		"privacy": map[string]any{"capture": map[string]any{"require_consent": true}},
	})
	f := New(Options{Config: cfg, Capabilities: fullCaps(), DataDir: dataDir})
	result := f.RunStart(context.Background())
	require.False(t, result.OK)
	require.Equal(t, "consent_required", result.Error)
}

func TestRunPauseThenResumeClearsPauseState(t *testing.T) {
	f := New(Options{Config: config.New(map[string]any{}), Capabilities: fullCaps()})
	f.RunStart(context.Background())
	paused := f.RunPause(10)
	require.NotEmpty(t, paused)
	require.True(t, f.Status()["paused"].(bool))

	result := f.RunResume(context.Background())
	require.True(t, result.OK)
	require.False(t, f.Status()["paused"].(bool))
}

func TestQueryReturnsBootFailedWhenBootErrorSet(t *testing.T) {
	f := New(Options{BootError: "ConfigError:instance_lock_held"})
	resp := f.Query(context.Background(), "status")
	require.False(t, resp.OK)
	require.Equal(t, "kernel_boot_failed", resp.Error)
}

func TestQueryReturnsCapabilityMissingWhenCapsAbsent(t *testing.T) {
	f := New(Options{Capabilities: capability.New(), DataDir: t.TempDir()})
	resp := f.Query(context.Background(), "status")
	require.False(t, resp.OK)
	require.Equal(t, "query_capability_missing", resp.Error)
}

func TestQuerySucceedsWhenCapabilitiesPresent(t *testing.T) {
	caps := capability.New()
	caps.Register("storage.metadata", struct{}{})
	caps.Register("retrieval.strategy", struct{}{})
	f := New(Options{Capabilities: caps, DataDir: t.TempDir()})
	resp := f.Query(context.Background(), "status")
	require.True(t, resp.OK)
}

func TestVerifyLedgerDelegatesToGate(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "ledger.ndjson")
	w, err := ledger.OpenWriter(ledgerPath)
	require.NoError(t, err)
	_, err = w.Append(time.Now().UTC().Format(time.RFC3339), "test.stage", nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f := New(Options{LedgerPath: ledgerPath})
	result, err := f.Verify(context.Background(), "ledger")
	require.NoError(t, err)
	require.True(t, result.OK)
}

func TestVerifyUnknownKindErrors(t *testing.T) {
	f := New(Options{})
	_, err := f.Verify(context.Background(), "bogus")
	require.Error(t, err)
}

func TestVerifyEvidenceMissingStoresErrors(t *testing.T) {
	f := New(Options{})
	_, err := f.Verify(context.Background(), "evidence")
	require.Error(t, err)
}

func TestStatusReadsLedgerHead(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "ledger.ndjson")
	w, err := ledger.OpenWriter(ledgerPath)
	require.NoError(t, err)
	entry, err := w.Append(time.Now().UTC().Format(time.RFC3339), "test.stage", nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f := New(Options{LedgerPath: ledgerPath})
	status := f.Status()
	require.Equal(t, entry.ThisHash, status["ledger_head"])
}

func TestRunStopStopsActiveCollector(t *testing.T) {
	f := New(Options{Config: config.New(map[string]any{}), Capabilities: fullCaps()})
	f.RunStart(context.Background())
	result := f.RunStop()
	require.True(t, result.OK)
	require.False(t, f.Status()["capture_active"].(bool))
}

func TestNewFacadeToleratesNilCollaborators(t *testing.T) {
	require.NotPanics(t, func() {
		f := New(Options{})
		_ = f.Status()
	})
}

