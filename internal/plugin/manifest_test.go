package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleYAML = `
plugin_id: ocr-pack
extensions:
  - kind: ocr.engine
    name: tesseract
    version: "1.0"
    factory: "ocrpack:NewTesseract"
    pillars:
      security:
        network_access: none
        sandbox: inproc
`

func TestLoadManifestYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "ocr.yaml", sampleYAML)
	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Equal(t, "ocr-pack", m.PluginID)
	require.Len(t, m.Extensions, 1)
	require.Equal(t, "ocr.engine", m.Extensions[0].Kind)
	require.Equal(t, "inproc", m.Extensions[0].Pillars.Security.Sandbox)
}

func TestDiscoverManifestPathsDeduplicatesAndSortsAcrossRoots(t *testing.T) {
	builtin := t.TempDir()
	writeManifest(t, builtin, "a.yaml", sampleYAML)
	extra := t.TempDir()
	writeManifest(t, extra, "b.json", `{"plugin_id":"b","extensions":[]}`)

	paths, err := DiscoverManifestPaths(builtin, []string{extra}, false)
	require.NoError(t, err)
	require.Len(t, paths, 2)
}

func TestDiscoverManifestPathsSkipsSearchPathsInSafeMode(t *testing.T) {
	builtin := t.TempDir()
	writeManifest(t, builtin, "a.yaml", sampleYAML)
	extra := t.TempDir()
	writeManifest(t, extra, "b.json", `{"plugin_id":"b","extensions":[]}`)

	paths, err := DiscoverManifestPaths(builtin, []string{extra}, true)
	require.NoError(t, err)
	require.Len(t, paths, 1)
}
