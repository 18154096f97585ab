package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ninjra/autocapture-prime-sub005/internal/config"
	"github.com/stretchr/testify/require"
)

func writeLockfile(t *testing.T, dir string, plugins map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, "lockfile.json")
	raw, err := json.Marshal(Lockfile{Plugins: plugins})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestVerifyAgainstLockfileDetectsHashMismatch(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeTestManifest(t, dir, "a.yaml", "ocr-pack", "test:factoryA")
	hash, err := manifestHash(manifestPath)
	require.NoError(t, err)

	cfg := config.New(nil)
	mgr, err := NewManager(cfg, Options{BuiltinRoot: dir, Factories: NewFactoryRegistry()})
	require.NoError(t, err)

	lockPath := writeLockfile(t, dir, map[string]string{"ocr-pack": hash})
	lf, err := LoadLockfile(lockPath)
	require.NoError(t, err)

	results := mgr.VerifyAgainstLockfile(lf)
	require.Len(t, results, 1)
	require.True(t, results[0].OK)

	require.NoError(t, os.WriteFile(manifestPath, []byte(`plugin_id: ocr-pack
extensions: []
`), 0o644))
	mgr2, err := NewManager(cfg, Options{BuiltinRoot: dir, Factories: NewFactoryRegistry()})
	require.NoError(t, err)
	results2 := mgr2.VerifyAgainstLockfile(lf)
	require.False(t, results2[0].OK)
	require.Equal(t, "hash_mismatch", results2[0].Reason)
}

func TestVerifyDefaultsFailsClosedWhenPluginMissing(t *testing.T) {
	dir := t.TempDir()
	cfg := config.New(nil)
	mgr, err := NewManager(cfg, Options{BuiltinRoot: dir, Factories: NewFactoryRegistry()})
	require.NoError(t, err)

	results := mgr.VerifyDefaults(Lockfile{Plugins: map[string]string{}}, []string{"ocr-pack"}, nil)
	require.Len(t, results, 1)
	require.False(t, results[0].OK)
	require.Equal(t, "not_discovered", results[0].Reason)
}

func TestVerifyDefaultsChecksRequiredKind(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeTestManifest(t, dir, "a.yaml", "ocr-pack", "test:factoryA")
	hash, err := manifestHash(manifestPath)
	require.NoError(t, err)

	cfg := config.New(nil)
	mgr, err := NewManager(cfg, Options{BuiltinRoot: dir, Factories: NewFactoryRegistry()})
	require.NoError(t, err)

	lf := Lockfile{Plugins: map[string]string{"ocr-pack": hash}}
	results := mgr.VerifyDefaults(lf, []string{"ocr-pack"}, map[string]string{"ocr-pack": "vision.extractor"})
	require.Len(t, results, 1)
	require.False(t, results[0].OK)
	require.Contains(t, results[0].Reason, "missing_required_kind")
}
