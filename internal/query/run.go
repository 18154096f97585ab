package query

import "context"

// Run arbitrates BuiltinProviders over text and produces the
// facade-facing success Response. Callers are responsible for routing
// boot-failure and capability-missing conditions to BootFailed /
// CapabilityMissing before reaching here.
func Run(ctx context.Context, storageRoot, text string, topK int) Response {
	q := Query{Text: text, StorageRoot: storageRoot, TopK: topK}
	arb := Arbitrate(ctx, BuiltinProviders(topK), q)

	var hits []Hit
	for _, r := range arb.Results {
		for _, c := range r.Claims {
			hits = append(hits, Hit{Row: map[string]any{"text": c.Text, "provider_id": r.ProviderID, "citation_ids": c.CitationIDs}, Score: 1})
		}
	}
	return successResponse(text, hits, arb)
}
