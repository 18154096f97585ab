// Package ocr implements the cache-first text recognition stage: a
// Span model, a disk+memory cache keyed on frame content hash plus
// ROI plus engine config, and an Engine fallback chain. Grounded on
// original_source/autocapture_prime/ocr/{base,cache}.py; no concrete
// OCR binding ships in this module's example corpus, so callers supply
// the Engine chain directly through RunnerOptions.Engines.
package ocr

import (
	"context"
	"image"
)

// Rect is a pixel-space bounding box (x0,y0,x1,y1), matching the
// Python tuple[int,int,int,int] convention of (left,top,right,bottom).
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Span is one recognized piece of text.
type Span struct {
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`
	Bbox         Rect    `json:"bbox"`
	ReadingOrder int     `json:"reading_order"`
	Language     string  `json:"language"`
}

// Engine recognizes text within an image, optionally restricted to a
// set of regions of interest. A nil/empty rois slice means "whole
// image".
type Engine interface {
	Name() string
	Run(ctx context.Context, img image.Image, rois []Rect) ([]Span, error)
}
