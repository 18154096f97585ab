package consent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileFailsClosed(t *testing.T) {
	c := Load(t.TempDir())
	require.False(t, c.Accepted)
	require.Nil(t, c.AcceptedTsUTC)
	require.False(t, Allowed(t.TempDir()))
}

func TestAcceptThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	c, err := Accept(dir)
	require.NoError(t, err)
	require.True(t, c.Accepted)
	require.NotNil(t, c.AcceptedTsUTC)

	loaded := Load(dir)
	require.True(t, loaded.Accepted)
	require.Equal(t, *c.AcceptedTsUTC, *loaded.AcceptedTsUTC)
	require.True(t, Allowed(dir))
}

func TestMalformedConsentFileFailsClosed(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c := Load(dir)
	require.False(t, c.Accepted)
	require.False(t, Allowed(dir))
}

func TestFalseAcceptedFailsClosed(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version":1,"accepted":false,"accepted_ts_utc":null}`), 0o644))

	require.False(t, Allowed(dir))
}
