package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendChainVerifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.ndjson")
	w, err := OpenWriter(path)
	require.NoError(t, err)

	_, err = w.Append("2026-07-29T00:00:00Z", "ingest.start", nil, []string{"h1"}, nil)
	require.NoError(t, err)
	_, err = w.Append("2026-07-29T00:00:01Z", "ingest.ocr", []string{"h1"}, []string{"h2"}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	result, err := Verify(path)
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, 2, result.Entries)
}

func TestVerifyMissingFileIsOK(t *testing.T) {
	result, err := Verify(filepath.Join(t.TempDir(), "absent.ndjson"))
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, 0, result.Entries)
}

func TestVerifyDetectsAnyByteMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.ndjson")
	w, err := OpenWriter(path)
	require.NoError(t, err)
	_, err = w.Append("2026-07-29T00:00:00Z", "a", nil, []string{"h1"}, nil)
	require.NoError(t, err)
	_, err = w.Append("2026-07-29T00:00:01Z", "b", []string{"h1"}, []string{"h2"}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	mutated := make([]byte, len(raw))
	copy(mutated, raw)
	// flip a byte inside the stage field of the first line
	for i, b := range mutated {
		if b == 'a' {
			mutated[i] = 'z'
			break
		}
	}
	require.NoError(t, os.WriteFile(path, mutated, 0o644))

	result, err := Verify(path)
	require.NoError(t, err)
	require.False(t, result.OK)
}

func TestWriterReopenResumesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.ndjson")
	w1, err := OpenWriter(path)
	require.NoError(t, err)
	e1, err := w1.Append("2026-07-29T00:00:00Z", "a", nil, []string{"h1"}, nil)
	require.NoError(t, err)
	require.NoError(t, w1.Close())

	w2, err := OpenWriter(path)
	require.NoError(t, err)
	e2, err := w2.Append("2026-07-29T00:00:01Z", "b", []string{"h1"}, []string{"h2"}, nil)
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	require.Equal(t, e1.ThisHash, e2.PrevHash)
	require.Equal(t, int64(2), e2.Sequence)

	result, err := Verify(path)
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, 2, result.Entries)
}

func TestAnchorRoundTripVerifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.ndjson")
	w, err := OpenWriter(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := w.Append("2026-07-29T00:00:00Z", "stage", nil, []string{"h"}, nil)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	entries, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	sign := HMACSigner([]byte("anchor-key"))
	anchor, err := BuildAnchor("2026-07-29T00:01:00Z", entries, sign)
	require.NoError(t, err)
	require.NotEmpty(t, anchor.RootHash)
	require.NotEmpty(t, anchor.Signature)

	verifySig := func(root, sig string) bool {
		want, err := sign(root)
		require.NoError(t, err)
		return want == sig
	}
	result, err := VerifyAnchors([]Anchor{anchor}, entries, verifySig)
	require.NoError(t, err)
	require.True(t, result.OK)
}

func TestAnchorVerifyFailsOnWrongRoot(t *testing.T) {
	entries := []Entry{
		{Sequence: 1, ThisHash: "h1"},
		{Sequence: 2, ThisHash: "h2"},
	}
	bad := Anchor{RootHash: "not-the-real-root", FromSeq: 1, ToSeq: 2}
	result, err := VerifyAnchors([]Anchor{bad}, entries, nil)
	require.NoError(t, err)
	require.False(t, result.OK)
}

func TestJournalEmitsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.ndjson")
	j, err := OpenJournal(path)
	require.NoError(t, err)
	require.NoError(t, j.Emit("2026-07-29T00:00:00Z", "disk.pressure", map[string]any{"level": "soft"}))
	require.NoError(t, j.Close())

	events, err := readNDJSON[JournalEvent](path)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "disk.pressure", events[0].Event)
}
