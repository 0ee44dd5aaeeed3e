package adapters

import (
	"github.com/tumilabs/rumiai/timestamp"
	"github.com/tumilabs/rumiai/types"
)

// AdaptOCR normalizes OCR output: per-frame records with text elements
// {text, bbox, size, position, category?}. Both "frames" and
// "textAnnotations" top keys are accepted. Elements flagged as stickers are
// preserved so the timeline builder can route them to the sticker modality.
func AdaptOCR(raw []byte, originalFPS float64) types.MLAnalysisResult {
	m, ok := unmarshalObject(raw)
	if !ok {
		return inputShapeFailure(types.ModelOCR, "not a JSON object")
	}

	frames, ok := firstSlice(m, "frames", "textAnnotations")
	if !ok {
		return inputShapeFailure(types.ModelOCR, "no frames key")
	}

	data := types.OCRData{Frames: make([]types.OCRFrame, 0, len(frames))}
	for _, rawFrame := range frames {
		fm, ok := asMap(rawFrame)
		if !ok {
			continue
		}

		frame := types.OCRFrame{}
		if ts, ok := timestamp.Parse(fm["timestamp"]); ok {
			frame.Time = ts.Seconds()
		} else if ts, ok := timestamp.Parse(fm["time"]); ok {
			frame.Time = ts.Seconds()
		} else if idx, ok := getInt(fm, "frame_index", "frame"); ok {
			frame.Time = timestamp.FrameToSeconds(idx, originalFPS)
		} else {
			dropUnparseable(types.ModelOCR, fm["timestamp"])
			continue
		}

		elements, _ := firstSlice(fm, "texts", "elements")
		for _, rawEl := range elements {
			em, ok := asMap(rawEl)
			if !ok {
				continue
			}

			text := getString(em, "text")
			if text == "" {
				continue
			}

			el := types.TextElement{
				Text:      text,
				SizeClass: getString(em, "size_class", "size"),
				Position:  getString(em, "position"),
				Category:  getString(em, "category"),
				Sticker:   getBool(em, "sticker", "is_sticker"),
			}
			el.Confidence, _ = getFloat(em, "confidence")
			if bbox, ok := getBBox(em["bbox"]); ok {
				el.BBox = *bbox
			}

			frame.Texts = append(frame.Texts, el)
		}

		data.Frames = append(data.Frames, frame)
	}

	return types.MLAnalysisResult{
		ModelName:    types.ModelOCR,
		ModelVersion: getString(m, "model_version", "modelVersion"),
		Success:      true,
		Data:         data,
	}
}
