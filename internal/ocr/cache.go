package ocr

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ninjra/autocapture-prime-sub005/internal/canon"
)

// cacheKeyPayload mirrors the Python cache key payload shape exactly
// (field names and sort order matter for hash stability) so the
// derived hex digest is reproducible byte-for-byte across runs.
type cacheKeyPayload struct {
	ConfigHash  string `json:"config_hash"`
	FrameSha256 string `json:"frame_sha256"`
	ROI         *[4]int `json:"roi"`
}

// CacheKey computes the deterministic cache key for one OCR
// invocation: a frame's content hash, an optional ROI, and the
// engine's config hash (so changing engine settings invalidates the
// cache without touching the frame's stored hash).
func CacheKey(frameSha256 string, roi *Rect, configHash string) (string, error) {
	payload := cacheKeyPayload{ConfigHash: configHash, FrameSha256: frameSha256}
	if roi != nil {
		arr := [4]int{roi.X0, roi.Y0, roi.X1, roi.Y1}
		payload.ROI = &arr
	}
	return canon.Hash(payload)
}

// cacheRow is the on-disk JSON shape for one cached span.
type cacheRow struct {
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`
	Bbox         [4]int  `json:"bbox"`
	ReadingOrder int     `json:"reading_order"`
	Language     string  `json:"language"`
}

// PathFor returns the cache file path for key under root.
func PathFor(root, key string) string {
	if len(key) >= 4 {
		return filepath.Join(root, key[:2], key[2:4], key+".json")
	}
	return filepath.Join(root, key+".json")
}

// LoadCache reads a previously cached span list from disk. A missing
// file or any parse error is reported as (nil, false) rather than an
// error, matching the Python original's fail-open-to-recompute
// behavior.
func LoadCache(path string) ([]Span, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var rows []cacheRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false
	}
	spans := make([]Span, 0, len(rows))
	for _, r := range rows {
		spans = append(spans, Span{
			Text:         r.Text,
			Confidence:   r.Confidence,
			Bbox:         Rect{X0: r.Bbox[0], Y0: r.Bbox[1], X1: r.Bbox[2], Y1: r.Bbox[3]},
			ReadingOrder: r.ReadingOrder,
			Language:     r.Language,
		})
	}
	return spans, true
}

// SaveCache persists spans to path, creating parent directories as
// needed.
func SaveCache(path string, spans []Span) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	rows := make([]cacheRow, 0, len(spans))
	for _, s := range spans {
		rows = append(rows, cacheRow{
			Text:         s.Text,
			Confidence:   s.Confidence,
			Bbox:         [4]int{s.Bbox.X0, s.Bbox.Y0, s.Bbox.X1, s.Bbox.Y1},
			ReadingOrder: s.ReadingOrder,
			Language:     s.Language,
		})
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
