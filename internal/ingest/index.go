package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// tokenRe matches the same alnum/underscore runs (length >= 2) as the
// lexical indexer this is grounded on.
var tokenRe = regexp.MustCompile(`[a-zA-Z0-9_]{2,}`)

func tokens(text string) []string {
	matches := tokenRe.FindAllString(text, -1)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = strings.ToLower(m)
	}
	return out
}

// BuildLexicalIndex builds a token -> sorted row-index posting list
// over rows' text/label/type fields and writes it as sorted-key JSON
// to outPath.
func BuildLexicalIndex(rows []map[string]any, outPath string) (string, error) {
	posting := map[string][]int{}
	for idx, row := range rows {
		content := strings.Join([]string{
			stringField(row, "text"), stringField(row, "label"), stringField(row, "type"),
		}, " ")
		seen := map[string]bool{}
		for _, tok := range tokens(content) {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			posting[tok] = append(posting[tok], idx)
		}
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	raw, err := json.Marshal(posting)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(outPath, raw, 0o644); err != nil {
		return "", err
	}
	return outPath, nil
}

// SearchResult is one ranked lexical-index hit.
type SearchResult struct {
	Row   map[string]any
	Score int
	Rank  int
	Index int
}

// SearchLexicalIndex scores rows against query's tokens using the
// posting list at indexPath, returning the top topK results ranked by
// descending score then ascending row index.
func SearchLexicalIndex(indexPath string, rows []map[string]any, query string, topK int) ([]SearchResult, error) {
	raw, err := os.ReadFile(indexPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var posting map[string][]int
	if err := json.Unmarshal(raw, &posting); err != nil {
		return nil, err
	}

	scores := map[int]int{}
	for _, tok := range tokens(query) {
		for _, idx := range posting[tok] {
			scores[idx]++
		}
	}

	type scored struct {
		idx   int
		score int
	}
	ranked := make([]scored, 0, len(scores))
	for idx, score := range scores {
		ranked = append(ranked, scored{idx, score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].idx < ranked[j].idx
	})

	if topK < 1 {
		topK = 1
	}
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	out := make([]SearchResult, 0, len(ranked))
	for i, r := range ranked {
		if r.idx < 0 || r.idx >= len(rows) {
			continue
		}
		out = append(out, SearchResult{Row: rows[r.idx], Score: r.score, Rank: i + 1, Index: r.idx})
	}
	return out, nil
}

func stringField(row map[string]any, key string) string {
	if v, ok := row[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
