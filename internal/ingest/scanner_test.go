package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeSession(t *testing.T, root, id string) {
	t.Helper()
	dir := filepath.Join(root, "session_"+id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "COMPLETE.json"), []byte(`{}`), 0o644))
}

func TestScannerListsOnlyCompleteSessions(t *testing.T) {
	root := t.TempDir()
	makeSession(t, root, "a")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "session_incomplete"), 0o755))

	s, err := OpenScanner(root, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer s.Close()

	complete, err := s.ListComplete()
	require.NoError(t, err)
	require.Len(t, complete, 1)
	require.Equal(t, "a", complete[0].SessionID)
}

func TestScannerMarkProcessedExcludesFromPending(t *testing.T) {
	root := t.TempDir()
	makeSession(t, root, "a")
	makeSession(t, root, "b")

	s, err := OpenScanner(root, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, s.MarkProcessed(ctx, pending[0]))
	pending2, err := s.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending2, 1)
}
