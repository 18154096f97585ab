// Package chronicle implements the chronicle.v0 capture wire format by
// hand, using google.golang.org/protobuf/encoding/protowire's
// low-level varint/tag primitives directly against the field layout
// recorded in the schema this format was distilled from (field
// numbers, types, and message nesting below mirror that descriptor
// exactly) since no protoc-generated stubs are available in this
// module.
package chronicle

// RectI32 is an axis-aligned integer rectangle (field 1-4: x,y,w,h int32).
type RectI32 struct {
	X, Y, W, H int32
}

// FrameMeta describes one captured screenshot frame.
type FrameMeta struct {
	SessionID    string
	FrameIndex   uint64
	QPCTicks     int64
	UnixNs       int64
	Width        uint32
	Height       uint32
	DesktopRect  *RectI32
	DirtyRects   []RectI32
	ArtifactPath string
}

// FrameMetaBatch is a repeated FrameMeta envelope.
type FrameMetaBatch struct {
	Items []FrameMeta
}

// MouseEvent carries raw mouse movement/button/wheel state.
type MouseEvent struct {
	X, Y             int32
	DeltaX, DeltaY   int32
	Buttons          uint32
	WheelDelta       int32
}

// ControlEvent is an out-of-band control action (e.g. session pause).
type ControlEvent struct {
	Action      string
	PayloadJSON string
}

// GenericHidEvent is a raw HID report not otherwise modeled.
type GenericHidEvent struct {
	UsagePage uint32
	Usage     uint32
	Payload   []byte
}

// InputEventType enumerates InputEvent's oneof-like payload kind.
type InputEventType int32

const (
	InputEventUnspecified InputEventType = 0
	InputEventMouse       InputEventType = 1
	InputEventControl     InputEventType = 2
	InputEventGenericHID  InputEventType = 3
)

// InputEvent is one captured input sample. Exactly one of Mouse,
// Control, GenericHID is populated, selected by Type.
type InputEvent struct {
	SessionID  string
	EventIndex uint64
	QPCTicks   int64
	UnixNs     int64
	DeviceID   string
	Type       InputEventType
	Mouse      *MouseEvent
	Control    *ControlEvent
	GenericHID *GenericHidEvent
}

// InputEventBatch is a repeated InputEvent envelope.
type InputEventBatch struct {
	Items []InputEvent
}

// UiElementType enumerates the accessibility element kinds captured.
type UiElementType int32

const (
	UIElementUnspecified UiElementType = 0
	UIElementWindow      UiElementType = 1
	UIElementPane        UiElementType = 2
	UIElementTab         UiElementType = 3
	UIElementButton      UiElementType = 4
	UIElementText        UiElementType = 5
	UIElementIcon        UiElementType = 6
	UIElementInput       UiElementType = 7
)

// UiElement is one detected UI layout element.
type UiElement struct {
	ElementID  string
	Type       UiElementType
	Bbox       *RectI32
	Confidence float32
	Label      string
	Text       string
	ParentID   string
}

// DetectionFrame is the set of UI elements detected in one frame.
type DetectionFrame struct {
	SessionID  string
	FrameIndex uint64
	QPCTicks   int64
	Elements   []UiElement
}

// DetectionBatch is a repeated DetectionFrame envelope.
type DetectionBatch struct {
	Items []DetectionFrame
}
