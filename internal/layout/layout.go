// Package layout extracts UI elements from a frame's OCR spans.
// Grounded on original_source/autocapture_prime/layout/{base,uied_engine}.py.
package layout

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"

	"github.com/ninjra/autocapture-prime-sub005/internal/ocr"
)

// ElementType mirrors chronicle.UiElementType's string form.
type ElementType string

const (
	ElementWindow ElementType = "WINDOW"
	ElementPane   ElementType = "PANE"
	ElementTab    ElementType = "TAB"
	ElementButton ElementType = "BUTTON"
	ElementText   ElementType = "TEXT"
	ElementIcon   ElementType = "ICON"
	ElementInput  ElementType = "INPUT"
)

// Element is one detected UI layout element.
type Element struct {
	ElementID  string
	Type       ElementType
	Bbox       ocr.Rect
	Confidence float64
	Label      string
	Text       string
	ParentID   string
}

// Engine detects UI elements from a frame image and its OCR spans.
type Engine interface {
	Name() string
	Run(ctx context.Context, img image.Image, spans []ocr.Span) ([]Element, error)
}

// TextFallbackEngine approximates layout detection from OCR spans
// alone, for use when no richer detector (e.g. a UIED/OmniParser-style
// model) is available. Every span becomes a TEXT element; the element
// id is a deterministic hash of its text and bbox so re-running OCR on
// an unchanged frame yields stable ids.
type TextFallbackEngine struct{}

// Name implements Engine.
func (TextFallbackEngine) Name() string { return "text_fallback" }

// Run implements Engine.
func (TextFallbackEngine) Run(_ context.Context, _ image.Image, spans []ocr.Span) ([]Element, error) {
	elements := make([]Element, 0, len(spans))
	for _, span := range spans {
		seed := fmt.Sprintf("%s|%d|%d|%d|%d", span.Text, span.Bbox.X0, span.Bbox.Y0, span.Bbox.X1, span.Bbox.Y1)
		sum := sha1.Sum([]byte(seed))
		elements = append(elements, Element{
			ElementID:  hex.EncodeToString(sum[:])[:16],
			Type:       ElementText,
			Bbox:       span.Bbox,
			Confidence: span.Confidence,
			Text:       span.Text,
			Label:      "ocr_text",
		})
	}
	return elements, nil
}
