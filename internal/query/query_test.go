package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ninjra/autocapture-prime-sub005/internal/capability"
	"github.com/ninjra/autocapture-prime-sub005/internal/ingest"
	"github.com/stretchr/testify/require"
)

func TestBootFailedPayloadShape(t *testing.T) {
	resp := BootFailed("ConfigError:instance_lock_held")
	require.False(t, resp.OK)
	require.Equal(t, "kernel_boot_failed", resp.Error)
	require.Equal(t, "degraded", resp.Answer["state"])
	trace := resp.Processing["query_trace"].(map[string]any)
	require.Equal(t, "kernel_boot_failed", trace["error"])
}

func TestCapabilityMissingPayloadShape(t *testing.T) {
	resp := CapabilityMissing([]string{"storage.metadata", "retrieval.strategy"})
	require.False(t, resp.OK)
	require.Equal(t, "query_capability_missing", resp.Error)
	trace := resp.Processing["query_trace"].(map[string]any)
	missing := trace["missing_capabilities"].([]string)
	require.Contains(t, missing, "storage.metadata")
}

func TestMissingCapabilitiesReportsAbsentIDs(t *testing.T) {
	caps := capability.New()
	caps.Register("storage.metadata", struct{}{})
	missing := MissingCapabilities(caps)
	require.Equal(t, []string{"retrieval.strategy"}, missing)
}

func TestMissingCapabilitiesNilRegistryReportsAll(t *testing.T) {
	require.Len(t, MissingCapabilities(nil), len(RequiredCapabilities))
}

func TestRunSearchesAcrossSessionDirectories(t *testing.T) {
	root := t.TempDir()
	sessionDir := filepath.Join(root, "s1")
	require.NoError(t, os.MkdirAll(sessionDir, 0o755))

	rows := []map[string]any{
		{"text": "Save document", "frame_index": 0},
		{"text": "Cancel", "frame_index": 1},
	}
	_, err := ingest.WriteRows(rows, sessionDir, "ocr_spans")
	require.NoError(t, err)
	_, err = ingest.BuildLexicalIndex(rows, filepath.Join(sessionDir, "lexical_index.json"))
	require.NoError(t, err)

	resp := Run(context.Background(), root, "save", 5)
	require.True(t, resp.OK)
	hits := resp.Answer["hits"].([]Hit)
	require.NotEmpty(t, hits)
}

func TestRunMissingStorageRootReturnsEmptySuccess(t *testing.T) {
	resp := Run(context.Background(), filepath.Join(t.TempDir(), "missing"), "anything", 5)
	require.True(t, resp.OK)
}

func TestArbitrateNormalizesContributionBpToTenThousand(t *testing.T) {
	providers := []Provider{
		fakeProvider{id: "p1", claims: 3},
		fakeProvider{id: "p2", claims: 1},
		fakeProvider{id: "p3", claims: 0},
	}
	result := Arbitrate(context.Background(), providers, Query{Text: "x"})
	require.Equal(t, []string{"p1", "p2", "p3"}, result.ProviderIDs())
	sum := 0
	for _, c := range result.Contributions {
		sum += c.ContributionBp
	}
	require.Equal(t, 10000, sum)
	require.Zero(t, result.Contributions[2].ContributionBp)
	require.Len(t, result.Handoffs, 2)
	require.Equal(t, Handoff{From: "p1", To: "p2"}, result.Handoffs[0])
}

type fakeProvider struct {
	id     string
	claims int
}

func (f fakeProvider) ID() string { return f.id }
func (f fakeProvider) Evaluate(context.Context, Query) (Claims, error) {
	cs := make([]Claim, f.claims)
	for i := range cs {
		cs[i] = Claim{Text: "claim"}
	}
	return Claims{Claims: cs}, nil
}
