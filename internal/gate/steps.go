package gate

import (
	"context"
	"fmt"

	"github.com/ninjra/autocapture-prime-sub005/internal/ledger"
	"github.com/ninjra/autocapture-prime-sub005/internal/plugin"
	"github.com/ninjra/autocapture-prime-sub005/internal/store/media"
	"github.com/ninjra/autocapture-prime-sub005/internal/store/metadata"
)

// LedgerVerifyStep builds the "ledger.verify" gate step.
func LedgerVerifyStep(path string) Step {
	return Step{
		Name: "ledger.verify",
		Run: func(_ context.Context) (*StepResult, error) {
			result, err := ledger.Verify(path)
			if err != nil {
				return nil, err
			}
			return &StepResult{OK: result.OK, Detail: detailOf(result.Reason, result.Entries)}, nil
		},
	}
}

// AnchorVerifyStep builds the "anchor.verify" gate step.
func AnchorVerifyStep(anchorPath, ledgerPath string, verify func(rootHash, signature string) bool) Step {
	return Step{
		Name: "anchor.verify",
		Run: func(_ context.Context) (*StepResult, error) {
			anchors, err := ledger.ReadAnchors(anchorPath)
			if err != nil {
				return nil, err
			}
			entries, err := ledger.ReadAll(ledgerPath)
			if err != nil {
				return nil, err
			}
			result, err := ledger.VerifyAnchors(anchors, entries, verify)
			if err != nil {
				return nil, err
			}
			return &StepResult{OK: result.OK, Detail: detailOf(result.Reason, result.Entries)}, nil
		},
	}
}

// EvidenceVerifyStep builds the "evidence.verify" gate step: it fails
// when any metadata row lacks a metadata_projection row, or the
// reverse. It does not read mediaStore, so it does not check that
// records or citations resolve to present media blobs.
func EvidenceVerifyStep(metaStore *metadata.Store, mediaStore *media.FileStore) Step {
	return Step{
		Name: "evidence.verify",
		Run: func(ctx context.Context) (*StepResult, error) {
			count, err := metaStore.Count(ctx)
			if err != nil {
				return nil, err
			}
			misaligned, err := metaStore.CountMisaligned(ctx)
			if err != nil {
				return nil, err
			}
			if misaligned > 0 {
				return &StepResult{OK: false, Detail: fmt.Sprintf("misaligned=%d of %d", misaligned, count)}, nil
			}
			return &StepResult{OK: true, Detail: fmt.Sprintf("records=%d", count)}, nil
		},
	}
}

// PluginsVerifyDefaultsStep builds the "plugins.verify-defaults" step.
func PluginsVerifyDefaultsStep(mgr *plugin.Manager, lockfile plugin.Lockfile, requiredIDs []string, requiredKinds map[string]string) Step {
	return Step{
		Name: "plugins.verify-defaults",
		Run: func(_ context.Context) (*StepResult, error) {
			results := mgr.VerifyDefaults(lockfile, requiredIDs, requiredKinds)
			ok := true
			var failing []string
			for _, r := range results {
				if !r.OK {
					ok = false
					failing = append(failing, r.PluginID)
				}
			}
			if !ok {
				return &StepResult{OK: false, Detail: fmt.Sprintf("failing=%v", failing)}, nil
			}
			return &StepResult{OK: true, Detail: fmt.Sprintf("verified=%d", len(results))}, nil
		},
	}
}

func detailOf(reason string, count int) string {
	if reason != "" {
		return fmt.Sprintf("reason=%s entries=%d", reason, count)
	}
	return fmt.Sprintf("entries=%d", count)
}
