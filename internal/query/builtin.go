package query

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ninjra/autocapture-prime-sub005/internal/ingest"
)

// sessionDirs lists every session directory under a storage root.
func sessionDirs(storageRoot string) ([]string, error) {
	entries, err := os.ReadDir(storageRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(storageRoot, e.Name()))
		}
	}
	return dirs, nil
}

// OCRProvider answers from raw recognized text spans (ocr_spans.ndjson).
type OCRProvider struct{}

func (OCRProvider) ID() string { return "builtin.ocr" }

func (OCRProvider) Evaluate(_ context.Context, q Query) (Claims, error) {
	dirs, err := sessionDirs(q.StorageRoot)
	if err != nil {
		return Claims{}, err
	}
	var claims []Claim
	citations := 0
	for _, dir := range dirs {
		rows, err := readNDJSONRows(filepath.Join(dir, "ocr_spans.ndjson"))
		if err != nil {
			continue
		}
		for i, row := range rows {
			text, _ := row["text"].(string)
			if text == "" || !strings.Contains(strings.ToLower(text), strings.ToLower(q.Text)) {
				continue
			}
			citationID := fmt.Sprintf("%s:ocr_spans:%d", filepath.Base(dir), i)
			claims = append(claims, Claim{Text: text, CitationIDs: []string{citationID}})
			citations++
		}
	}
	return Claims{Claims: claims, CitationCount: citations}, nil
}

// UIAContextProvider answers from detected layout elements
// (elements.ndjson) — labels, button text, window titles.
type UIAContextProvider struct{}

func (UIAContextProvider) ID() string { return "builtin.uia_context" }

func (UIAContextProvider) Evaluate(_ context.Context, q Query) (Claims, error) {
	dirs, err := sessionDirs(q.StorageRoot)
	if err != nil {
		return Claims{}, err
	}
	var claims []Claim
	citations := 0
	for _, dir := range dirs {
		rows, err := readNDJSONRows(filepath.Join(dir, "elements.ndjson"))
		if err != nil {
			continue
		}
		for i, row := range rows {
			label, _ := row["label"].(string)
			text, _ := row["text"].(string)
			combined := strings.TrimSpace(label + " " + text)
			if combined == "" || !strings.Contains(strings.ToLower(combined), strings.ToLower(q.Text)) {
				continue
			}
			citationID := fmt.Sprintf("%s:elements:%d", filepath.Base(dir), i)
			claims = append(claims, Claim{Text: combined, CitationIDs: []string{citationID}})
			citations++
		}
	}
	return Claims{Claims: claims, CitationCount: citations}, nil
}

// ObservationGraphProvider answers from the cross-frame element tracks
// (tracks.ndjson), surfacing which tracked UI element a query matched.
type ObservationGraphProvider struct{}

func (ObservationGraphProvider) ID() string { return "builtin.observation.graph" }

func (ObservationGraphProvider) Evaluate(_ context.Context, q Query) (Claims, error) {
	dirs, err := sessionDirs(q.StorageRoot)
	if err != nil {
		return Claims{}, err
	}
	var claims []Claim
	citations := 0
	for _, dir := range dirs {
		rows, err := readNDJSONRows(filepath.Join(dir, "tracks.ndjson"))
		if err != nil {
			continue
		}
		for i, row := range rows {
			text, _ := row["text"].(string)
			if text == "" || !strings.Contains(strings.ToLower(text), strings.ToLower(q.Text)) {
				continue
			}
			trackID, _ := row["track_id"].(string)
			claims = append(claims, Claim{
				Text:        fmt.Sprintf("track %s: %s", trackID, text),
				CitationIDs: []string{fmt.Sprintf("%s:tracks:%d", filepath.Base(dir), i)},
			})
			citations++
		}
	}
	return Claims{Claims: claims, CitationCount: citations}, nil
}

// DerivedTablesProvider answers from the session's lexical index, the
// only provider that consults a precomputed rank rather than scanning
// raw rows, grounded on store/index.py.
type DerivedTablesProvider struct{ TopK int }

func (DerivedTablesProvider) ID() string { return "builtin.derived_tables" }

func (p DerivedTablesProvider) Evaluate(_ context.Context, q Query) (Claims, error) {
	dirs, err := sessionDirs(q.StorageRoot)
	if err != nil {
		return Claims{}, err
	}
	topK := p.TopK
	if topK <= 0 {
		topK = 10
	}
	var claims []Claim
	citations := 0
	for _, dir := range dirs {
		rows, err := loadSearchableRows(dir)
		if err != nil {
			continue
		}
		results, err := ingest.SearchLexicalIndex(filepath.Join(dir, "lexical_index.json"), rows, q.Text, topK)
		if err != nil {
			continue
		}
		for _, r := range results {
			text, _ := r.Row["text"].(string)
			if text == "" {
				text, _ = r.Row["label"].(string)
			}
			claims = append(claims, Claim{
				Text:        text,
				CitationIDs: []string{fmt.Sprintf("%s:lexical_index:%d", filepath.Base(dir), r.Index)},
			})
			citations++
		}
	}
	return Claims{Claims: claims, CitationCount: citations}, nil
}

// BuiltinProviders returns the four standard providers in their fixed
// registration order (observation graph, OCR, UIA context, derived
// tables), matching the provider ids in original_source fixtures.
func BuiltinProviders(topK int) []Provider {
	return []Provider{
		ObservationGraphProvider{},
		OCRProvider{},
		UIAContextProvider{},
		DerivedTablesProvider{TopK: topK},
	}
}
