package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DataDog/zstd"
	"github.com/ninjra/autocapture-prime-sub005/internal/wire/chronicle"
)

// zstdMagic is the frame magic number zstd-compressed chronicle
// batches are prefixed with.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// FrameMetaRow, InputEventRow, and DetectionRow are the loosely-typed
// row shapes used downstream by the pipeline and table writers,
// mirroring the Python loader's plain dict rows.
type FrameMetaRow = map[string]any
type InputEventRow = map[string]any
type DetectionRow = map[string]any

// LoadedSession is a session's manifest plus its decoded chronicle batches.
type LoadedSession struct {
	SessionDir string
	Manifest   map[string]any
	FramesMeta []FrameMetaRow
	InputEvents []InputEventRow
	Detections  []DetectionRow
}

// maybeDecompressZstd decompresses blob if it carries the zstd magic
// prefix, else returns it unchanged.
func maybeDecompressZstd(blob []byte) ([]byte, error) {
	if len(blob) < 4 {
		return blob, nil
	}
	for i, b := range zstdMagic {
		if blob[i] != b {
			return blob, nil
		}
	}
	return zstd.Decompress(nil, blob)
}

// loadBatch reads the chronicle batch file at path (frames/input/detections
// kind), decompressing zstd framing if present and decoding the
// chronicle.v0 wire format.
func loadBatch(path, kind string) ([]map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err := maybeDecompressZstd(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "frames":
		batch, err := chronicle.DecodeFrameMetaBatch(data)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(batch.Items))
		for _, f := range batch.Items {
			out = append(out, frameMetaToMap(f))
		}
		return out, nil
	case "input":
		batch, err := chronicle.DecodeInputEventBatch(data)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(batch.Items))
		for _, e := range batch.Items {
			out = append(out, inputEventToMap(e))
		}
		return out, nil
	case "detections":
		batch, err := chronicle.DecodeDetectionBatch(data)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(batch.Items))
		for _, d := range batch.Items {
			out = append(out, detectionFrameToMap(d))
		}
		return out, nil
	}
	return nil, nil
}

func frameMetaToMap(f chronicle.FrameMeta) map[string]any {
	m := map[string]any{
		"session_id":  f.SessionID,
		"frame_index": f.FrameIndex,
		"qpc_ticks":   f.QPCTicks,
		"unix_ns":     f.UnixNs,
		"width":       f.Width,
		"height":      f.Height,
	}
	if f.ArtifactPath != "" {
		m["artifact_path"] = f.ArtifactPath
	}
	return m
}

func inputEventToMap(e chronicle.InputEvent) map[string]any {
	m := map[string]any{
		"session_id":  e.SessionID,
		"event_index": e.EventIndex,
		"qpc_ticks":   e.QPCTicks,
		"unix_ns":     e.UnixNs,
		"device_id":   e.DeviceID,
		"type":        int(e.Type),
	}
	if e.Mouse != nil {
		m["mouse"] = map[string]any{
			"x": e.Mouse.X, "y": e.Mouse.Y,
			"delta_x": e.Mouse.DeltaX, "delta_y": e.Mouse.DeltaY,
			"buttons": e.Mouse.Buttons, "wheel_delta": e.Mouse.WheelDelta,
		}
	}
	if e.Control != nil {
		m["control"] = map[string]any{"action": e.Control.Action, "payload_json": e.Control.PayloadJSON}
	}
	if e.GenericHID != nil {
		m["generic_hid"] = map[string]any{"usage_page": e.GenericHID.UsagePage, "usage": e.GenericHID.Usage}
	}
	return m
}

func detectionFrameToMap(d chronicle.DetectionFrame) map[string]any {
	elements := make([]map[string]any, 0, len(d.Elements))
	for _, el := range d.Elements {
		elements = append(elements, map[string]any{
			"element_id": el.ElementID,
			"type":       int(el.Type),
			"label":      el.Label,
			"text":       el.Text,
			"confidence": el.Confidence,
			"parent_id":  el.ParentID,
		})
	}
	return map[string]any{
		"session_id":  d.SessionID,
		"frame_index": d.FrameIndex,
		"qpc_ticks":   d.QPCTicks,
		"elements":    elements,
	}
}

// Load reads sessionDir's manifest and chronicle batch files.
func Load(sessionDir string) (LoadedSession, error) {
	out := LoadedSession{SessionDir: sessionDir, Manifest: map[string]any{}}

	manifestPath := filepath.Join(sessionDir, "manifest.json")
	if raw, err := os.ReadFile(manifestPath); err == nil {
		_ = json.Unmarshal(raw, &out.Manifest)
	}

	metaDir := filepath.Join(sessionDir, "meta")
	if rows, err := loadBatchIfExists(filepath.Join(metaDir, "frames.pb.zst"), "frames"); err != nil {
		return out, err
	} else {
		out.FramesMeta = rows
	}
	if rows, err := loadBatchIfExists(filepath.Join(metaDir, "input.pb.zst"), "input"); err != nil {
		return out, err
	} else {
		out.InputEvents = rows
	}
	if rows, err := loadBatchIfExists(filepath.Join(metaDir, "detections.pb.zst"), "detections"); err != nil {
		return out, err
	} else {
		out.Detections = rows
	}
	return out, nil
}

func loadBatchIfExists(path, kind string) ([]map[string]any, error) {
	if !fileExists(path) {
		return nil, nil
	}
	return loadBatch(path, kind)
}

// FramePath resolves the on-disk PNG artifact path for a frame meta row.
func FramePath(sessionDir string, frameMeta map[string]any) string {
	if p, ok := frameMeta["artifact_path"].(string); ok && p != "" {
		return filepath.Join(sessionDir, p)
	}
	idx := toInt(frameMeta["frame_index"])
	return filepath.Join(sessionDir, "frames", frameFileName(idx))
}

func frameFileName(frameIndex int) string {
	return fmt.Sprintf("frame_%06d.png", frameIndex)
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case uint64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}
