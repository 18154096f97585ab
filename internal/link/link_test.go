package link

import (
	"testing"

	"github.com/ninjra/autocapture-prime-sub005/internal/layout"
	"github.com/ninjra/autocapture-prime-sub005/internal/ocr"
	"github.com/stretchr/testify/require"
)

func elem(id string, typ layout.ElementType, bbox ocr.Rect, text string) layout.Element {
	return layout.Element{ElementID: id, Type: typ, Bbox: bbox, Text: text}
}

func TestLinkAssignsSameTrackWhenOverlapAndTextMatch(t *testing.T) {
	frames := []FrameElements{
		{FrameIndex: 0, Elements: []layout.Element{elem("e1", layout.ElementButton, ocr.Rect{X0: 0, Y0: 0, X1: 50, Y1: 20}, "Save")}},
		{FrameIndex: 1, Elements: []layout.Element{elem("e2", layout.ElementButton, ocr.Rect{X0: 1, Y0: 1, X1: 51, Y1: 21}, "Save")}},
	}
	tracks, switches := New(0).Link(frames, nil)
	require.Len(t, tracks, 2)
	require.Equal(t, tracks[0].TrackID, tracks[1].TrackID)
	require.Equal(t, 0, switches)
}

func TestLinkStartsNewTrackWhenNoOverlap(t *testing.T) {
	frames := []FrameElements{
		{FrameIndex: 0, Elements: []layout.Element{elem("e1", layout.ElementText, ocr.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}, "A")}},
		{FrameIndex: 1, Elements: []layout.Element{elem("e2", layout.ElementText, ocr.Rect{X0: 500, Y0: 500, X1: 510, Y1: 510}, "B")}},
	}
	tracks, switches := New(0).Link(frames, nil)
	require.NotEqual(t, tracks[0].TrackID, tracks[1].TrackID)
	require.Equal(t, 0, switches)
}

func TestLinkCountsIDSwitchWhenSameSlotDifferentElement(t *testing.T) {
	box := ocr.Rect{X0: 0, Y0: 0, X1: 50, Y1: 20}
	frames := []FrameElements{
		{FrameIndex: 0, Elements: []layout.Element{elem("e1", layout.ElementButton, box, "Save")}},
		{FrameIndex: 1, Elements: []layout.Element{elem("e2", layout.ElementButton, box, "Save")}},
	}
	_, switches := New(0).Link(frames, nil)
	require.Equal(t, 1, switches)
}

func TestLinkTiedCandidatesResolveDeterministically(t *testing.T) {
	box := ocr.Rect{X0: 0, Y0: 0, X1: 50, Y1: 20}
	frames := []FrameElements{
		{FrameIndex: 0, Elements: []layout.Element{
			elem("e1", layout.ElementButton, box, "Save"),
			elem("e2", layout.ElementButton, box, "Save"),
		}},
		{FrameIndex: 1, Elements: []layout.Element{
			elem("e3", layout.ElementButton, box, "Save"),
		}},
	}
	// e3 scores identically against both frame-0 tracks (same bbox, type,
	// and text), so the chosen track must be the first one inserted,
	// every time, regardless of Go's randomized map iteration order.
	for i := 0; i < 20; i++ {
		tracks, _ := New(0).Link(frames, nil)
		require.Equal(t, tracks[0].TrackID, tracks[2].TrackID)
	}
}

func TestLinkClickOutsideOverlapDoesNotReassignTrack(t *testing.T) {
	frames := []FrameElements{
		{FrameIndex: 0, Elements: []layout.Element{
			elem("e1", layout.ElementButton, ocr.Rect{X0: 0, Y0: 0, X1: 50, Y1: 20}, "Cancel"),
		}},
		{FrameIndex: 1, Elements: []layout.Element{
			elem("e2a", layout.ElementButton, ocr.Rect{X0: 0, Y0: 0, X1: 50, Y1: 20}, "Ok"),
			elem("e2b", layout.ElementButton, ocr.Rect{X0: 60, Y0: 0, X1: 110, Y1: 20}, "Cancel"),
		}},
	}
	clicks := map[int]Point{1: {X: 80, Y: 10}}
	tracks, _ := New(0).Link(frames, clicks)
	require.Len(t, tracks, 3)
	// The click lands in e2b, but e2b does not overlap e1, so only e2a
	// can continue e1's track; the boost adds to every candidate of one
	// element equally and never moves a track to another element.
	require.Equal(t, tracks[0].TrackID, tracks[1].TrackID)
	require.NotEqual(t, tracks[0].TrackID, tracks[2].TrackID)
}
