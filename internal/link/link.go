// Package link implements the temporal linker: associates UI elements
// across consecutive frames into stable tracks using IoU overlap, text
// similarity, and click-anchor boosting. Grounded on
// original_source/autocapture_prime/link/temporal_linker.py.
package link

import (
	"fmt"

	"github.com/ninjra/autocapture-prime-sub005/internal/layout"
	"github.com/ninjra/autocapture-prime-sub005/internal/ocr"
	"github.com/pmezard/go-difflib/difflib"
)

// DefaultIoUThreshold is the minimum overlap ratio required before two
// elements across frames are even considered for the same track.
const DefaultIoUThreshold = 0.3

// clickBoost is added to the match score when a recorded click point
// for this frame falls inside the candidate element's bbox.
const clickBoost = 0.2

// FrameElements is one frame's detected elements, indexed by frame
// number for track bookkeeping and click-point lookup.
type FrameElements struct {
	FrameIndex int
	Elements   []layout.Element
}

// Point is a pixel coordinate, used for click-anchor boosting.
type Point struct{ X, Y int }

// TrackedElement is one element observation tagged with its
// cross-frame track id.
type TrackedElement struct {
	TrackID    string
	FrameIndex int
	ElementID  string
	Type       layout.ElementType
	Text       string
	Bbox       ocr.Rect
}

// Linker assigns track ids to elements across a session's frames.
type Linker struct {
	iouThreshold float64
}

// New constructs a Linker. threshold <= 0 uses DefaultIoUThreshold.
func New(threshold float64) *Linker {
	if threshold <= 0 {
		threshold = DefaultIoUThreshold
	}
	return &Linker{iouThreshold: threshold}
}

// Link assigns track ids across frames in order, returning every
// element observation tagged with its track and the total count of
// detected id switches (a prior track reassigned to a different
// underlying element id).
func (l *Linker) Link(frames []FrameElements, clickPoints map[int]Point) ([]TrackedElement, int) {
	tracks := make([]TrackedElement, 0)
	prev := map[string]layout.Element{}
	// prevOrder preserves the order tracks were inserted into prev, since
	// Go map iteration order is randomized and candidate search must be
	// deterministic across runs for equal-scoring candidates.
	prevOrder := []string{}
	nextTrack := 1
	idSwitches := 0

	for _, frame := range frames {
		current := map[string]layout.Element{}
		currentOrder := make([]string, 0, len(frame.Elements))
		used := map[string]bool{}

		for _, element := range frame.Elements {
			chosen := ""
			bestScore := -1.0

			for _, prevTrack := range prevOrder {
				if used[prevTrack] {
					continue
				}
				prevElem := prev[prevTrack]
				if prevElem.Type != element.Type {
					continue
				}
				iou := iouOf(prevElem.Bbox, element.Bbox)
				if iou < l.iouThreshold {
					continue
				}
				textScore := textRatio(prevElem.Text, element.Text)
				boost := 0.0
				if click, ok := clickPoints[frame.FrameIndex]; ok && contains(element.Bbox, click) {
					boost = clickBoost
				}
				score := (0.7 * iou) + (0.3 * textScore) + boost
				if score > bestScore {
					bestScore = score
					chosen = prevTrack
				}
			}

			if chosen == "" {
				chosen = fmt.Sprintf("trk_%06d", nextTrack)
				nextTrack++
			} else {
				used[chosen] = true
				if prevElem, ok := prev[chosen]; ok && prevElem.ElementID != element.ElementID {
					idSwitches++
				}
			}

			current[chosen] = element
			currentOrder = append(currentOrder, chosen)
			tracks = append(tracks, TrackedElement{
				TrackID:    chosen,
				FrameIndex: frame.FrameIndex,
				ElementID:  element.ElementID,
				Type:       element.Type,
				Text:       element.Text,
				Bbox:       element.Bbox,
			})
		}
		prev = current
		prevOrder = currentOrder
	}
	return tracks, idSwitches
}

func iouOf(a, b ocr.Rect) float64 {
	ix0, iy0 := max(a.X0, b.X0), max(a.Y0, b.Y0)
	ix1, iy1 := min(a.X1, b.X1), min(a.Y1, b.Y1)
	iw, ih := max(0, ix1-ix0), max(0, iy1-iy0)
	inter := iw * ih
	if inter <= 0 {
		return 0
	}
	areaA := max(0, a.X1-a.X0) * max(0, a.Y1-a.Y0)
	areaB := max(0, b.X1-b.X0) * max(0, b.Y1-b.Y0)
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func contains(bbox ocr.Rect, p Point) bool {
	return bbox.X0 <= p.X && p.X <= bbox.X1 && bbox.Y0 <= p.Y && p.Y <= bbox.Y1
}

// textRatio computes difflib's SequenceMatcher.ratio() equivalent
// over the runes of a and b.
func textRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	m := difflib.NewMatcher(splitRunes(a), splitRunes(b))
	return m.Ratio()
}

func splitRunes(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}
