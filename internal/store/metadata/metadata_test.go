package metadata

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGetRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := Record{
		ID:         "rec-1",
		RecordType: "frame_meta",
		TsUTC:      "2026-07-29T00:00:00Z",
		RunID:      "run-1",
		Payload:    []byte(`{"w":1}`),
	}
	require.NoError(t, s.Put(ctx, r))

	got, ok, err := s.Get(ctx, "rec-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, r.RecordType, got.RecordType)
	require.JSONEq(t, `{"w":1}`, string(got.Payload))
}

func TestGetMissingReturnsNotOK(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPutMaintainsAlignedProjection(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, Record{ID: "rec-1", RecordType: "t", TsUTC: "2026-07-29T00:00:00Z", RunID: "r", Payload: []byte(`{}`)}))
	require.NoError(t, s.Put(ctx, Record{ID: "rec-2", RecordType: "t", TsUTC: "2026-07-29T00:00:01Z", RunID: "r", Payload: []byte(`{}`)}))

	n, err := s.CountMisaligned(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestPutReplaceDoesNotDuplicateProjection(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := Record{ID: "rec-1", RecordType: "t", TsUTC: "2026-07-29T00:00:00Z", RunID: "r", Payload: []byte(`{"v":1}`)}
	require.NoError(t, s.Put(ctx, r))
	r.Payload = []byte(`{"v":2}`)
	require.NoError(t, s.Put(ctx, r))

	got, ok, err := s.Get(ctx, "rec-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"v":2}`, string(got.Payload))

	n, err := s.CountMisaligned(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
