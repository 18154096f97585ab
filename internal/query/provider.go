package query

import (
	"context"
	"sync"
)

// Query is the arbitration unit every provider evaluates independently.
type Query struct {
	Text        string
	StorageRoot string
	TopK        int
}

// Claim is one piece of evidence a provider contributes toward an
// answer, optionally backed by citation ids (row references).
type Claim struct {
	Text        string   `json:"text"`
	CitationIDs []string `json:"citation_ids,omitempty"`
}

// Claims is one provider's full contribution to a Query.
type Claims struct {
	ProviderID    string  `json:"provider_id"`
	Claims        []Claim `json:"claims"`
	CitationCount int     `json:"citation_count"`
}

// Provider answers a Query from one retrieval angle (observation
// graph, OCR text, UIA context, derived tables), matching the
// `builtin.*` provider ids seen in original_source fixtures.
type Provider interface {
	ID() string
	Evaluate(ctx context.Context, q Query) (Claims, error)
}

// Contribution is one provider's normalized share of an answer.
type Contribution struct {
	ProviderID     string `json:"provider_id"`
	ClaimCount     int    `json:"claim_count"`
	CitationCount  int    `json:"citation_count"`
	ContributionBp int    `json:"contribution_bp"`
}

// Handoff is one DAG edge recording that one provider's output fed the
// next provider's turn, in provider registration order.
type Handoff struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ArbitrationResult is the combined outcome of running every Provider
// over one Query.
type ArbitrationResult struct {
	Results       []Claims       `json:"results"`
	Contributions []Contribution `json:"contributions"`
	Handoffs      []Handoff      `json:"handoffs"`
}

// ProviderIDs lists the providers that were invoked, in registration
// order (not completion order).
func (a ArbitrationResult) ProviderIDs() []string {
	ids := make([]string, len(a.Results))
	for i, r := range a.Results {
		ids[i] = r.ProviderID
	}
	return ids
}

// Arbitrate runs every provider concurrently, collects results into a
// slice indexed by registration order (deterministic regardless of
// goroutine completion order), and computes each provider's
// contribution_bp proportional to its claim+citation count,
// normalized to sum 10000 across contributing providers.
func Arbitrate(ctx context.Context, providers []Provider, q Query) ArbitrationResult {
	results := make([]Claims, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			claims, err := p.Evaluate(ctx, q)
			if err != nil {
				results[i] = Claims{ProviderID: p.ID()}
				return
			}
			claims.ProviderID = p.ID()
			results[i] = claims
		}(i, p)
	}
	wg.Wait()

	weights := make([]int, len(results))
	totalWeight := 0
	for i, r := range results {
		w := len(r.Claims) + r.CitationCount
		weights[i] = w
		totalWeight += w
	}

	contributions := make([]Contribution, len(results))
	assigned := 0
	lastContributing := -1
	for i, r := range results {
		bp := 0
		if totalWeight > 0 && weights[i] > 0 {
			bp = (weights[i] * 10000) / totalWeight
			assigned += bp
			lastContributing = i
		}
		contributions[i] = Contribution{
			ProviderID:     r.ProviderID,
			ClaimCount:     len(r.Claims),
			CitationCount:  r.CitationCount,
			ContributionBp: bp,
		}
	}
	if lastContributing >= 0 && assigned != 10000 {
		contributions[lastContributing].ContributionBp += 10000 - assigned
	}

	var handoffs []Handoff
	for i := 0; i+1 < len(results); i++ {
		handoffs = append(handoffs, Handoff{From: results[i].ProviderID, To: results[i+1].ProviderID})
	}

	return ArbitrationResult{Results: results, Contributions: contributions, Handoffs: handoffs}
}
