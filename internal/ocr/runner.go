package ocr

import (
	"context"
	"image"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ninjra/autocapture-prime-sub005/internal/kerr"
)

// Runner drives a cache-first OCR pass: an in-memory LRU fronts an
// on-disk cache directory, and a chain of Engines is tried in order
// on a cache miss, returning the first engine's non-empty, error-free
// result. Grounded on original_source/autocapture_prime/ocr/cache.py
// (disk cache) and the plugin manager's hashicorp/golang-lru/v2 usage
// (memory cache).
type Runner struct {
	engines    []Engine
	cacheRoot  string
	configHash string
	memCache   *lru.Cache[string, []Span]
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Engines    []Engine
	CacheRoot  string
	ConfigHash string
	MemCacheSize int
}

// NewRunner builds a Runner from opts. MemCacheSize defaults to 256
// entries when unset.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	size := opts.MemCacheSize
	if size <= 0 {
		size = 256
	}
	mem, err := lru.New[string, []Span](size)
	if err != nil {
		return nil, err
	}
	return &Runner{
		engines:    opts.Engines,
		cacheRoot:  opts.CacheRoot,
		configHash: opts.ConfigHash,
		memCache:   mem,
	}, nil
}

// Run recognizes text in img, consulting the memory cache, then the
// disk cache, then the engine fallback chain in order. frameSha256
// identifies the source frame's content for cache addressing.
func (r *Runner) Run(ctx context.Context, frameSha256 string, img image.Image, roi *Rect) ([]Span, error) {
	key, err := CacheKey(frameSha256, roi, r.configHash)
	if err != nil {
		return nil, err
	}
	if spans, ok := r.memCache.Get(key); ok {
		return spans, nil
	}
	if r.cacheRoot != "" {
		if spans, ok := LoadCache(PathFor(r.cacheRoot, key)); ok {
			r.memCache.Add(key, spans)
			return spans, nil
		}
	}

	var rois []Rect
	if roi != nil {
		rois = []Rect{*roi}
	}

	var lastErr error
	for _, eng := range r.engines {
		spans, err := eng.Run(ctx, img, rois)
		if err != nil {
			lastErr = err
			continue
		}
		if len(spans) == 0 {
			continue
		}
		r.memCache.Add(key, spans)
		if r.cacheRoot != "" {
			_ = SaveCache(PathFor(r.cacheRoot, key), spans)
		}
		return spans, nil
	}
	if lastErr != nil {
		return nil, kerr.Wrap(kerr.CapabilityMissing, "ocr_engine_chain_exhausted", lastErr)
	}
	return nil, nil
}
