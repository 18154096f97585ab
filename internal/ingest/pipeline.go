package ingest

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ninjra/autocapture-prime-sub005/internal/config"
	"github.com/ninjra/autocapture-prime-sub005/internal/layout"
	"github.com/ninjra/autocapture-prime-sub005/internal/ledger"
	"github.com/ninjra/autocapture-prime-sub005/internal/link"
	"github.com/ninjra/autocapture-prime-sub005/internal/metrics"
	"github.com/ninjra/autocapture-prime-sub005/internal/ocr"
	"github.com/ninjra/autocapture-prime-sub005/internal/timebase"
)

// DecodedFrame is a PNG frame artifact's decoded dimensions and pixel
// content, grounded on ingest/frame_decoder.py.
type DecodedFrame struct {
	FrameIndex int
	ImagePath  string
	Width      int
	Height     int
	Mode       string
	Image      image.Image
}

// DecodePNG decodes the PNG at imagePath.
func DecodePNG(imagePath string, frameIndex int) (DecodedFrame, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return DecodedFrame{}, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return DecodedFrame{}, err
	}
	b := img.Bounds()
	return DecodedFrame{
		FrameIndex: frameIndex,
		ImagePath:  imagePath,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Mode:       colorModeName(img.ColorModel()),
		Image:      img,
	}, nil
}

func colorModeName(m color.Model) string {
	switch m {
	case color.RGBAModel, color.NRGBAModel:
		return "RGBA"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I"
	default:
		return "RGB"
	}
}

// Engines bundles the resolved OCR/layout/link components a pipeline
// run needs; callers (the gate/facade layer) resolve these from the
// plugin and capability registries before calling IngestSession.
type Engines struct {
	OCR    *ocr.Runner
	Layout layout.Engine
	Linker *link.Linker
}

// Summary is the per-session ingest result, serialized verbatim to
// ingest_summary.json.
type Summary struct {
	SessionID  string         `json:"session_id"`
	Rows       map[string]int `json:"rows"`
	IDSwitches int            `json:"id_switches"`
	Outputs    map[string]string `json:"outputs"`
}

// IngestSession runs the full per-session ingest pipeline: decode each
// frame, recognize text, detect layout elements, link elements across
// frames into tracks, write row tables, build the lexical index, and
// persist a summary. Grounded on ingest/pipeline.py.
func IngestSession(ctx context.Context, session SessionCandidate, cfg *config.Config, engines Engines, storageRoot string, journal *ledger.Journal) (Summary, error) {
	loaded, err := Load(session.SessionDir)
	if err != nil {
		return Summary{}, err
	}

	qpcFreq := int64(cfg.GetInt("ingest.qpc_frequency_hz_default", 1))
	if v, ok := loaded.Manifest["qpc_frequency_hz"]; ok {
		qpcFreq = int64(toInt(v))
	}
	startQPC := int64(0)
	if v, ok := loaded.Manifest["start_qpc_ticks"]; ok {
		startQPC = int64(toInt(v))
	}

	var frameRows, ocrRows, elementRows []map[string]any
	var linkFrames []link.FrameElements

	for _, frameMeta := range loaded.FramesMeta {
		frameIndex := toInt(frameMeta["frame_index"])
		imagePath := FramePath(session.SessionDir, frameMeta)
		if !fileExists(imagePath) {
			continue
		}
		decoded, err := DecodePNG(imagePath, frameIndex)
		if err != nil {
			continue
		}

		frameSha := frameContentKey(session.SessionID, frameIndex)
		spans, err := engines.OCR.Run(ctx, frameSha, decoded.Image, nil)
		if err != nil {
			spans = nil
		}
		elements, err := engines.Layout.Run(ctx, decoded.Image, spans)
		if err != nil {
			elements = nil
		}

		qpcTicks := int64(toInt(frameMeta["qpc_ticks"]))
		frameRows = append(frameRows, map[string]any{
			"session_id":  session.SessionID,
			"frame_index": frameIndex,
			"image_path":  decoded.ImagePath,
			"width":       decoded.Width,
			"height":      decoded.Height,
			"mode":        decoded.Mode,
			"qpc_ticks":   qpcTicks,
			"t_rel_s":     qpcToRelativeSeconds(qpcTicks, startQPC, qpcFreq),
		})
		for _, span := range spans {
			ocrRows = append(ocrRows, map[string]any{
				"session_id":    session.SessionID,
				"frame_index":   frameIndex,
				"text":          span.Text,
				"confidence":    span.Confidence,
				"bbox":          []int{span.Bbox.X0, span.Bbox.Y0, span.Bbox.X1, span.Bbox.Y1},
				"reading_order": span.ReadingOrder,
				"language":      span.Language,
			})
		}
		for _, el := range elements {
			elementRows = append(elementRows, map[string]any{
				"session_id":  session.SessionID,
				"frame_index": frameIndex,
				"element_id":  el.ElementID,
				"type":        string(el.Type),
				"label":       el.Label,
				"text":        el.Text,
				"bbox":        []int{el.Bbox.X0, el.Bbox.Y0, el.Bbox.X1, el.Bbox.Y1},
				"confidence":  el.Confidence,
				"parent_id":   el.ParentID,
			})
		}
		linkFrames = append(linkFrames, link.FrameElements{FrameIndex: frameIndex, Elements: elements})
		metrics.IngestRecordsTotal.WithLabelValues("frame").Inc()
	}

	tracks, idSwitches := engines.Linker.Link(linkFrames, nil)
	trackRows := make([]map[string]any, 0, len(tracks))
	for _, tr := range tracks {
		trackRows = append(trackRows, map[string]any{
			"session_id":  session.SessionID,
			"track_id":    tr.TrackID,
			"frame_index": tr.FrameIndex,
			"element_id":  tr.ElementID,
			"type":        string(tr.Type),
			"text":        tr.Text,
			"bbox":        []int{tr.Bbox.X0, tr.Bbox.Y0, tr.Bbox.X1, tr.Bbox.Y1},
		})
	}

	targetRoot := filepath.Join(storageRoot, session.SessionID)
	if err := os.MkdirAll(targetRoot, 0o755); err != nil {
		return Summary{}, err
	}
	outFrames, err := WriteRows(frameRows, targetRoot, "frames")
	if err != nil {
		return Summary{}, err
	}
	outInput, err := WriteRows(loaded.InputEvents, targetRoot, "events_input")
	if err != nil {
		return Summary{}, err
	}
	outOCR, err := WriteRows(ocrRows, targetRoot, "ocr_spans")
	if err != nil {
		return Summary{}, err
	}
	outElements, err := WriteRows(elementRows, targetRoot, "elements")
	if err != nil {
		return Summary{}, err
	}
	outTracks, err := WriteRows(trackRows, targetRoot, "tracks")
	if err != nil {
		return Summary{}, err
	}
	indexRows := append(append([]map[string]any{}, ocrRows...), elementRows...)
	indexPath, err := BuildLexicalIndex(indexRows, filepath.Join(targetRoot, "lexical_index.json"))
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		SessionID: session.SessionID,
		Rows: map[string]int{
			"frames":       len(frameRows),
			"input_events": len(loaded.InputEvents),
			"ocr_spans":    len(ocrRows),
			"elements":     len(elementRows),
			"tracks":       len(trackRows),
		},
		IDSwitches: idSwitches,
		Outputs: map[string]string{
			"frames":        outFrames,
			"events_input":  outInput,
			"ocr_spans":     outOCR,
			"elements":      outElements,
			"tracks":        outTracks,
			"lexical_index": indexPath,
		},
	}
	summaryBytes, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return Summary{}, err
	}
	if err := os.WriteFile(filepath.Join(targetRoot, "ingest_summary.json"), summaryBytes, 0o644); err != nil {
		return Summary{}, err
	}

	if journal != nil {
		_ = journal.Emit(timebase.UTCNowZ(), "ingest.session_complete", summary)
	}
	metrics.IngestRecordsTotal.WithLabelValues("session").Inc()
	return summary, nil
}

func frameContentKey(sessionID string, frameIndex int) string {
	return sessionID + ":" + strconv.Itoa(frameIndex)
}
