package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ninjra/autocapture-prime-sub005/internal/config"
	"github.com/ninjra/autocapture-prime-sub005/internal/kerr"
	"github.com/stretchr/testify/require"
)

func writeTestManifest(t *testing.T, dir, name, pluginID, factory string) string {
	t.Helper()
	content := `
plugin_id: ` + pluginID + `
extensions:
  - kind: ocr.engine
    name: primary
    version: "1.0"
    factory: "` + factory + `"
    pillars:
      security:
        network_access: none
        sandbox: inproc
`
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetExtensionResolvesAndCaches(t *testing.T) {
	dir := t.TempDir()
	writeTestManifest(t, dir, "a.yaml", "ocr-pack", "test:factoryA")

	calls := 0
	factories := NewFactoryRegistry()
	factories.Register("test:factoryA", func(pluginID string) (any, error) {
		calls++
		return "instance-" + pluginID, nil
	})

	cfg := config.New(nil)
	mgr, err := NewManager(cfg, Options{BuiltinRoot: dir, Factories: factories})
	require.NoError(t, err)

	inst, err := mgr.GetExtension("ocr.engine", "")
	require.NoError(t, err)
	require.Equal(t, "instance-ocr-pack", inst.Value)

	_, err = mgr.GetExtension("ocr.engine", "")
	require.NoError(t, err)
	require.Equal(t, 1, calls, "second call should hit cache, not re-invoke factory")
}

func TestGetExtensionMissingFactoryReturnsPluginLoadFailed(t *testing.T) {
	dir := t.TempDir()
	writeTestManifest(t, dir, "a.yaml", "ocr-pack", "test:missing")

	cfg := config.New(nil)
	mgr, err := NewManager(cfg, Options{BuiltinRoot: dir, Factories: NewFactoryRegistry()})
	require.NoError(t, err)

	_, err = mgr.GetExtension("ocr.engine", "")
	require.Error(t, err)
	require.Equal(t, kerr.PluginLoadFailed, kerr.KindOf(err))
}

func TestDisabledPluginIsNotEnabled(t *testing.T) {
	dir := t.TempDir()
	writeTestManifest(t, dir, "a.yaml", "ocr-pack", "test:factoryA")

	factories := NewFactoryRegistry()
	factories.Register("test:factoryA", func(string) (any, error) { return "x", nil })

	cfg := config.New(map[string]any{
		"plugins": map[string]any{"enabled": map[string]any{"ocr-pack": false}},
	})
	mgr, err := NewManager(cfg, Options{BuiltinRoot: dir, Factories: factories})
	require.NoError(t, err)

	_, err = mgr.GetExtension("ocr.engine", "")
	require.Error(t, err)
	require.Equal(t, kerr.CapabilityMissing, kerr.KindOf(err))
}

func TestSafeModeRejectsNonInprocSandbox(t *testing.T) {
	dir := t.TempDir()
	content := `
plugin_id: risky-pack
extensions:
  - kind: ocr.engine
    name: primary
    version: "1.0"
    factory: "test:factoryA"
    pillars:
      security:
        network_access: none
        sandbox: subprocess
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(content), 0o644))

	cfg := config.New(map[string]any{
		"plugins": map[string]any{"default_pack": []any{"risky-pack"}},
	})
	mgr, err := NewManager(cfg, Options{BuiltinRoot: dir, SafeMode: true, Factories: NewFactoryRegistry()})
	require.NoError(t, err)

	rows := mgr.ListPlugins()
	require.Len(t, rows, 1)
	require.False(t, rows[0].Enabled)
}

func TestRefreshReloadsChangedManifestAndEvictsCache(t *testing.T) {
	dir := t.TempDir()
	path := writeTestManifest(t, dir, "a.yaml", "ocr-pack", "test:factoryA")

	factories := NewFactoryRegistry()
	factories.Register("test:factoryA", func(string) (any, error) { return "v1", nil })
	factories.Register("test:factoryB", func(string) (any, error) { return "v2", nil })

	cfg := config.New(nil)
	mgr, err := NewManager(cfg, Options{BuiltinRoot: dir, Factories: factories})
	require.NoError(t, err)

	inst, err := mgr.GetExtension("ocr.engine", "")
	require.NoError(t, err)
	require.Equal(t, "v1", inst.Value)

	time.Sleep(10 * time.Millisecond)
	content := `
plugin_id: ocr-pack
extensions:
  - kind: ocr.engine
    name: primary
    version: "2.0"
    factory: "test:factoryB"
    pillars:
      security:
        network_access: none
        sandbox: inproc
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reloaded, err := mgr.Refresh()
	require.NoError(t, err)
	require.Contains(t, reloaded, "ocr-pack")

	inst2, err := mgr.GetExtension("ocr.engine", "")
	require.NoError(t, err)
	require.Equal(t, "v2", inst2.Value)
}

func TestFactoryRegistryPanicsOnDuplicateRegistration(t *testing.T) {
	r := NewFactoryRegistry()
	r.Register("dup", func(string) (any, error) { return nil, errors.New("x") })
	require.Panics(t, func() {
		r.Register("dup", func(string) (any, error) { return nil, nil })
	})
}
