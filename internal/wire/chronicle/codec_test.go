package chronicle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameMetaBatchRoundTrips(t *testing.T) {
	batch := FrameMetaBatch{Items: []FrameMeta{
		{
			SessionID:    "sess-1",
			FrameIndex:   42,
			QPCTicks:     123456789,
			UnixNs:       1790000000000000000,
			Width:        1920,
			Height:       1080,
			DesktopRect:  &RectI32{X: 0, Y: 0, W: 1920, H: 1080},
			DirtyRects:   []RectI32{{X: 10, Y: 10, W: 100, H: 50}, {X: -5, Y: 0, W: 20, H: 20}},
			ArtifactPath: "blobs/ab/cd1234.png",
		},
		{SessionID: "sess-1", FrameIndex: 43},
	}}

	encoded := EncodeFrameMetaBatch(batch)
	decoded, err := DecodeFrameMetaBatch(encoded)
	require.NoError(t, err)
	require.Equal(t, batch, decoded)
}

func TestInputEventBatchRoundTripsMouse(t *testing.T) {
	batch := InputEventBatch{Items: []InputEvent{
		{
			SessionID:  "sess-1",
			EventIndex: 7,
			QPCTicks:   99,
			UnixNs:     123,
			DeviceID:   "mouse0",
			Type:       InputEventMouse,
			Mouse:      &MouseEvent{X: 100, Y: -50, DeltaX: 1, DeltaY: -1, Buttons: 2, WheelDelta: 120},
		},
		{
			SessionID:  "sess-1",
			EventIndex: 8,
			Type:       InputEventControl,
			Control:    &ControlEvent{Action: "pause", PayloadJSON: `{"reason":"idle"}`},
		},
		{
			SessionID:  "sess-1",
			EventIndex: 9,
			Type:       InputEventGenericHID,
			GenericHID: &GenericHidEvent{UsagePage: 1, Usage: 6, Payload: []byte{0x01, 0x02, 0x03}},
		},
	}}

	encoded := EncodeInputEventBatch(batch)
	decoded, err := DecodeInputEventBatch(encoded)
	require.NoError(t, err)
	require.Equal(t, batch, decoded)
}

func TestDetectionBatchRoundTrips(t *testing.T) {
	batch := DetectionBatch{Items: []DetectionFrame{
		{
			SessionID:  "sess-1",
			FrameIndex: 1,
			QPCTicks:   5,
			Elements: []UiElement{
				{
					ElementID:  "el-1",
					Type:       UIElementButton,
					Bbox:       &RectI32{X: 1, Y: 2, W: 3, H: 4},
					Confidence: 0.875,
					Label:      "OK",
					Text:       "OK",
					ParentID:   "el-0",
				},
				{ElementID: "el-2", Type: UIElementWindow},
			},
		},
	}}

	encoded := EncodeDetectionBatch(batch)
	decoded, err := DecodeDetectionBatch(encoded)
	require.NoError(t, err)
	require.Equal(t, batch, decoded)
}

func TestDecodeEmptyBytesYieldsEmptyBatch(t *testing.T) {
	decoded, err := DecodeFrameMetaBatch(nil)
	require.NoError(t, err)
	require.Empty(t, decoded.Items)
}

func TestDecodeTruncatedBytesErrors(t *testing.T) {
	batch := FrameMetaBatch{Items: []FrameMeta{{SessionID: "s", FrameIndex: 1}}}
	encoded := EncodeFrameMetaBatch(batch)
	_, err := DecodeFrameMetaBatch(encoded[:len(encoded)-1])
	require.Error(t, err)
}
