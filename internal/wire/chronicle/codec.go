package chronicle

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// field numbers, exactly as assigned in the schema this format was
// distilled from.
const (
	fieldRectX = 1
	fieldRectY = 2
	fieldRectW = 3
	fieldRectH = 4

	fieldFrameSessionID    = 1
	fieldFrameIndex        = 2
	fieldFrameQPCTicks     = 3
	fieldFrameUnixNs       = 4
	fieldFrameWidth        = 5
	fieldFrameHeight       = 6
	fieldFrameDesktopRect  = 8
	fieldFrameDirtyRects   = 9
	fieldFrameArtifactPath = 11

	fieldMouseX          = 1
	fieldMouseY          = 2
	fieldMouseDeltaX      = 3
	fieldMouseDeltaY      = 4
	fieldMouseButtons     = 5
	fieldMouseWheelDelta  = 6

	fieldControlAction      = 1
	fieldControlPayloadJSON = 2

	fieldHidUsagePage = 1
	fieldHidUsage     = 2
	fieldHidPayload   = 3

	fieldInputSessionID  = 1
	fieldInputEventIndex = 2
	fieldInputQPCTicks   = 3
	fieldInputUnixNs     = 4
	fieldInputDeviceID   = 5
	fieldInputType       = 6
	fieldInputMouse      = 10
	fieldInputControl    = 11
	fieldInputGenericHID = 12

	fieldUIElementID    = 1
	fieldUIType         = 2
	fieldUIBbox         = 3
	fieldUIConfidence   = 4
	fieldUILabel        = 5
	fieldUIText         = 6
	fieldUIParentID     = 7

	fieldDetectionSessionID  = 1
	fieldDetectionFrameIndex = 2
	fieldDetectionQPCTicks   = 3
	fieldDetectionElements   = 4

	fieldBatchItems = 1
)

// --- encoding -------------------------------------------------------

func appendRect(b []byte, num protowire.Number, r *RectI32) []byte {
	if r == nil {
		return b
	}
	var inner []byte
	inner = protowire.AppendTag(inner, fieldRectX, protowire.VarintType)
	inner = protowire.AppendVarint(inner, uint64(int64(r.X)))
	inner = protowire.AppendTag(inner, fieldRectY, protowire.VarintType)
	inner = protowire.AppendVarint(inner, uint64(int64(r.Y)))
	inner = protowire.AppendTag(inner, fieldRectW, protowire.VarintType)
	inner = protowire.AppendVarint(inner, uint64(int64(r.W)))
	inner = protowire.AppendTag(inner, fieldRectH, protowire.VarintType)
	inner = protowire.AppendVarint(inner, uint64(int64(r.H)))
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendBytes(b, inner)
	return b
}

// EncodeFrameMetaBatch serializes a FrameMetaBatch to chronicle.v0 wire bytes.
func EncodeFrameMetaBatch(batch FrameMetaBatch) []byte {
	var out []byte
	for _, item := range batch.Items {
		inner := encodeFrameMeta(item)
		out = protowire.AppendTag(out, fieldBatchItems, protowire.BytesType)
		out = protowire.AppendBytes(out, inner)
	}
	return out
}

func encodeFrameMeta(f FrameMeta) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldFrameSessionID, protowire.BytesType)
	b = protowire.AppendString(b, f.SessionID)
	b = protowire.AppendTag(b, fieldFrameIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, f.FrameIndex)
	b = protowire.AppendTag(b, fieldFrameQPCTicks, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.QPCTicks))
	b = protowire.AppendTag(b, fieldFrameUnixNs, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.UnixNs))
	b = protowire.AppendTag(b, fieldFrameWidth, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.Width))
	b = protowire.AppendTag(b, fieldFrameHeight, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.Height))
	b = appendRect(b, fieldFrameDesktopRect, f.DesktopRect)
	for i := range f.DirtyRects {
		b = appendRect(b, fieldFrameDirtyRects, &f.DirtyRects[i])
	}
	if f.ArtifactPath != "" {
		b = protowire.AppendTag(b, fieldFrameArtifactPath, protowire.BytesType)
		b = protowire.AppendString(b, f.ArtifactPath)
	}
	return b
}

func encodeMouseEvent(m MouseEvent) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldMouseX, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.X))
	b = protowire.AppendTag(b, fieldMouseY, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Y))
	b = protowire.AppendTag(b, fieldMouseDeltaX, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.DeltaX))
	b = protowire.AppendTag(b, fieldMouseDeltaY, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.DeltaY))
	b = protowire.AppendTag(b, fieldMouseButtons, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Buttons))
	b = protowire.AppendTag(b, fieldMouseWheelDelta, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.WheelDelta))
	return b
}

func encodeControlEvent(c ControlEvent) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldControlAction, protowire.BytesType)
	b = protowire.AppendString(b, c.Action)
	b = protowire.AppendTag(b, fieldControlPayloadJSON, protowire.BytesType)
	b = protowire.AppendString(b, c.PayloadJSON)
	return b
}

func encodeGenericHid(g GenericHidEvent) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldHidUsagePage, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(g.UsagePage))
	b = protowire.AppendTag(b, fieldHidUsage, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(g.Usage))
	b = protowire.AppendTag(b, fieldHidPayload, protowire.BytesType)
	b = protowire.AppendBytes(b, g.Payload)
	return b
}

// EncodeInputEventBatch serializes an InputEventBatch to wire bytes.
func EncodeInputEventBatch(batch InputEventBatch) []byte {
	var out []byte
	for _, item := range batch.Items {
		inner := encodeInputEvent(item)
		out = protowire.AppendTag(out, fieldBatchItems, protowire.BytesType)
		out = protowire.AppendBytes(out, inner)
	}
	return out
}

func encodeInputEvent(e InputEvent) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldInputSessionID, protowire.BytesType)
	b = protowire.AppendString(b, e.SessionID)
	b = protowire.AppendTag(b, fieldInputEventIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, e.EventIndex)
	b = protowire.AppendTag(b, fieldInputQPCTicks, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.QPCTicks))
	b = protowire.AppendTag(b, fieldInputUnixNs, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.UnixNs))
	b = protowire.AppendTag(b, fieldInputDeviceID, protowire.BytesType)
	b = protowire.AppendString(b, e.DeviceID)
	b = protowire.AppendTag(b, fieldInputType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Type))
	switch e.Type {
	case InputEventMouse:
		if e.Mouse != nil {
			b = protowire.AppendTag(b, fieldInputMouse, protowire.BytesType)
			b = protowire.AppendBytes(b, encodeMouseEvent(*e.Mouse))
		}
	case InputEventControl:
		if e.Control != nil {
			b = protowire.AppendTag(b, fieldInputControl, protowire.BytesType)
			b = protowire.AppendBytes(b, encodeControlEvent(*e.Control))
		}
	case InputEventGenericHID:
		if e.GenericHID != nil {
			b = protowire.AppendTag(b, fieldInputGenericHID, protowire.BytesType)
			b = protowire.AppendBytes(b, encodeGenericHid(*e.GenericHID))
		}
	}
	return b
}

func encodeUiElement(u UiElement) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldUIElementID, protowire.BytesType)
	b = protowire.AppendString(b, u.ElementID)
	b = protowire.AppendTag(b, fieldUIType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(u.Type))
	b = appendRect(b, fieldUIBbox, u.Bbox)
	b = protowire.AppendTag(b, fieldUIConfidence, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(u.Confidence))
	if u.Label != "" {
		b = protowire.AppendTag(b, fieldUILabel, protowire.BytesType)
		b = protowire.AppendString(b, u.Label)
	}
	if u.Text != "" {
		b = protowire.AppendTag(b, fieldUIText, protowire.BytesType)
		b = protowire.AppendString(b, u.Text)
	}
	if u.ParentID != "" {
		b = protowire.AppendTag(b, fieldUIParentID, protowire.BytesType)
		b = protowire.AppendString(b, u.ParentID)
	}
	return b
}

// EncodeDetectionBatch serializes a DetectionBatch to wire bytes.
func EncodeDetectionBatch(batch DetectionBatch) []byte {
	var out []byte
	for _, item := range batch.Items {
		inner := encodeDetectionFrame(item)
		out = protowire.AppendTag(out, fieldBatchItems, protowire.BytesType)
		out = protowire.AppendBytes(out, inner)
	}
	return out
}

func encodeDetectionFrame(d DetectionFrame) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldDetectionSessionID, protowire.BytesType)
	b = protowire.AppendString(b, d.SessionID)
	b = protowire.AppendTag(b, fieldDetectionFrameIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, d.FrameIndex)
	b = protowire.AppendTag(b, fieldDetectionQPCTicks, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(d.QPCTicks))
	for _, el := range d.Elements {
		b = protowire.AppendTag(b, fieldDetectionElements, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeUiElement(el))
	}
	return b
}

// --- decoding -------------------------------------------------------

// DecodeFrameMetaBatch parses chronicle.v0 wire bytes into a FrameMetaBatch.
func DecodeFrameMetaBatch(data []byte) (FrameMetaBatch, error) {
	var out FrameMetaBatch
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if num != fieldBatchItems {
			return nil
		}
		item, err := decodeFrameMeta(v)
		if err != nil {
			return err
		}
		out.Items = append(out.Items, item)
		return nil
	})
	return out, err
}

func decodeRect(data []byte) (RectI32, error) {
	var r RectI32
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case fieldRectX:
			r.X = int32(n)
		case fieldRectY:
			r.Y = int32(n)
		case fieldRectW:
			r.W = int32(n)
		case fieldRectH:
			r.H = int32(n)
		}
		return nil
	})
	return r, err
}

func decodeFrameMeta(data []byte) (FrameMeta, error) {
	var f FrameMeta
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case fieldFrameSessionID:
			f.SessionID = string(v)
		case fieldFrameIndex:
			f.FrameIndex = n
		case fieldFrameQPCTicks:
			f.QPCTicks = int64(n)
		case fieldFrameUnixNs:
			f.UnixNs = int64(n)
		case fieldFrameWidth:
			f.Width = uint32(n)
		case fieldFrameHeight:
			f.Height = uint32(n)
		case fieldFrameDesktopRect:
			r, err := decodeRect(v)
			if err != nil {
				return err
			}
			f.DesktopRect = &r
		case fieldFrameDirtyRects:
			r, err := decodeRect(v)
			if err != nil {
				return err
			}
			f.DirtyRects = append(f.DirtyRects, r)
		case fieldFrameArtifactPath:
			f.ArtifactPath = string(v)
		}
		return nil
	})
	return f, err
}

func decodeMouseEvent(data []byte) (MouseEvent, error) {
	var m MouseEvent
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case fieldMouseX:
			m.X = int32(n)
		case fieldMouseY:
			m.Y = int32(n)
		case fieldMouseDeltaX:
			m.DeltaX = int32(n)
		case fieldMouseDeltaY:
			m.DeltaY = int32(n)
		case fieldMouseButtons:
			m.Buttons = uint32(n)
		case fieldMouseWheelDelta:
			m.WheelDelta = int32(n)
		}
		return nil
	})
	return m, err
}

func decodeControlEvent(data []byte) (ControlEvent, error) {
	var c ControlEvent
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case fieldControlAction:
			c.Action = string(v)
		case fieldControlPayloadJSON:
			c.PayloadJSON = string(v)
		}
		return nil
	})
	return c, err
}

func decodeGenericHid(data []byte) (GenericHidEvent, error) {
	var g GenericHidEvent
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case fieldHidUsagePage:
			g.UsagePage = uint32(n)
		case fieldHidUsage:
			g.Usage = uint32(n)
		case fieldHidPayload:
			g.Payload = append([]byte(nil), v...)
		}
		return nil
	})
	return g, err
}

// DecodeInputEventBatch parses chronicle.v0 wire bytes into an InputEventBatch.
func DecodeInputEventBatch(data []byte) (InputEventBatch, error) {
	var out InputEventBatch
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if num != fieldBatchItems {
			return nil
		}
		item, err := decodeInputEvent(v)
		if err != nil {
			return err
		}
		out.Items = append(out.Items, item)
		return nil
	})
	return out, err
}

func decodeInputEvent(data []byte) (InputEvent, error) {
	var e InputEvent
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case fieldInputSessionID:
			e.SessionID = string(v)
		case fieldInputEventIndex:
			e.EventIndex = n
		case fieldInputQPCTicks:
			e.QPCTicks = int64(n)
		case fieldInputUnixNs:
			e.UnixNs = int64(n)
		case fieldInputDeviceID:
			e.DeviceID = string(v)
		case fieldInputType:
			e.Type = InputEventType(n)
		case fieldInputMouse:
			m, err := decodeMouseEvent(v)
			if err != nil {
				return err
			}
			e.Mouse = &m
		case fieldInputControl:
			c, err := decodeControlEvent(v)
			if err != nil {
				return err
			}
			e.Control = &c
		case fieldInputGenericHID:
			g, err := decodeGenericHid(v)
			if err != nil {
				return err
			}
			e.GenericHID = &g
		}
		return nil
	})
	return e, err
}

func decodeUiElement(data []byte) (UiElement, error) {
	var u UiElement
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case fieldUIElementID:
			u.ElementID = string(v)
		case fieldUIType:
			u.Type = UiElementType(n)
		case fieldUIBbox:
			r, err := decodeRect(v)
			if err != nil {
				return err
			}
			u.Bbox = &r
		case fieldUIConfidence:
			u.Confidence = math.Float32frombits(uint32(n))
		case fieldUILabel:
			u.Label = string(v)
		case fieldUIText:
			u.Text = string(v)
		case fieldUIParentID:
			u.ParentID = string(v)
		}
		return nil
	})
	return u, err
}

// DecodeDetectionBatch parses chronicle.v0 wire bytes into a DetectionBatch.
func DecodeDetectionBatch(data []byte) (DetectionBatch, error) {
	var out DetectionBatch
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if num != fieldBatchItems {
			return nil
		}
		item, err := decodeDetectionFrame(v)
		if err != nil {
			return err
		}
		out.Items = append(out.Items, item)
		return nil
	})
	return out, err
}

func decodeDetectionFrame(data []byte) (DetectionFrame, error) {
	var d DetectionFrame
	err := eachField(data, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch num {
		case fieldDetectionSessionID:
			d.SessionID = string(v)
		case fieldDetectionFrameIndex:
			d.FrameIndex = n
		case fieldDetectionQPCTicks:
			d.QPCTicks = int64(n)
		case fieldDetectionElements:
			el, err := decodeUiElement(v)
			if err != nil {
				return err
			}
			d.Elements = append(d.Elements, el)
		}
		return nil
	})
	return d, err
}

// --- low-level field iteration --------------------------------------

// fieldFunc receives the field number/wire type for every top-level
// field in a message, plus whichever of v (for bytes/string fields) or
// n (for varint/fixed32/fixed64 fields, widened to uint64) applies.
type fieldFunc func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error

// eachField walks every top-level field in a serialized message,
// invoking fn once per field. Unknown field numbers are accepted and
// ignored by callers (forward compatibility), matching proto3
// semantics.
func eachField(data []byte, fn fieldFunc) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("chronicle: invalid tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch typ {
		case protowire.VarintType:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("chronicle: invalid varint: %w", protowire.ParseError(n))
			}
			data = data[n:]
			if err := fn(num, typ, nil, val); err != nil {
				return err
			}
		case protowire.Fixed32Type:
			val, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return fmt.Errorf("chronicle: invalid fixed32: %w", protowire.ParseError(n))
			}
			data = data[n:]
			if err := fn(num, typ, nil, uint64(val)); err != nil {
				return err
			}
		case protowire.Fixed64Type:
			val, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return fmt.Errorf("chronicle: invalid fixed64: %w", protowire.ParseError(n))
			}
			data = data[n:]
			if err := fn(num, typ, nil, val); err != nil {
				return err
			}
		case protowire.BytesType:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("chronicle: invalid bytes: %w", protowire.ParseError(n))
			}
			data = data[n:]
			if err := fn(num, typ, val, 0); err != nil {
				return err
			}
		case protowire.StartGroupType:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("chronicle: invalid group: %w", protowire.ParseError(n))
			}
			data = data[n:]
		default:
			return fmt.Errorf("chronicle: unsupported wire type %v", typ)
		}
	}
	return nil
}
