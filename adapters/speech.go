package adapters

import (
	"github.com/tumilabs/rumiai/timestamp"
	"github.com/tumilabs/rumiai/types"
)

// AdaptSpeech normalizes transcription output:
// {segments: [{start,end,text,confidence,words?}], language}.
// Segments with an unparseable start are dropped; a missing end falls back
// to the start (zero-length segment).
func AdaptSpeech(raw []byte) types.MLAnalysisResult {
	m, ok := unmarshalObject(raw)
	if !ok {
		return inputShapeFailure(types.ModelSpeech, "not a JSON object")
	}

	segments, ok := firstSlice(m, "segments", "transcripts")
	if !ok {
		return inputShapeFailure(types.ModelSpeech, "no segments key")
	}

	data := types.SpeechData{
		Language: getString(m, "language", "lang"),
		Segments: make([]types.SpeechSegment, 0, len(segments)),
	}

	for _, rawSeg := range segments {
		sm, ok := asMap(rawSeg)
		if !ok {
			continue
		}

		start, ok := timestamp.Parse(sm["start"])
		if !ok {
			dropUnparseable(types.ModelSpeech, sm["start"])
			continue
		}

		seg := types.SpeechSegment{
			Start: start.Seconds(),
			End:   start.Seconds(),
			Text:  getString(sm, "text"),
		}
		if end, ok := timestamp.Parse(sm["end"]); ok {
			seg.End = end.Seconds()
		}
		seg.Confidence, _ = getFloat(sm, "confidence")

		words, _ := firstSlice(sm, "words")
		for _, rawWord := range words {
			wm, ok := asMap(rawWord)
			if !ok {
				continue
			}
			word := types.Word{Word: getString(wm, "word", "text")}
			if ws, ok := timestamp.Parse(wm["start"]); ok {
				word.Start = ws.Seconds()
			}
			if we, ok := timestamp.Parse(wm["end"]); ok {
				word.End = we.Seconds()
			}
			word.Confidence, _ = getFloat(wm, "confidence", "probability")
			seg.Words = append(seg.Words, word)
		}

		data.Segments = append(data.Segments, seg)
	}

	return types.MLAnalysisResult{
		ModelName:    types.ModelSpeech,
		ModelVersion: getString(m, "model_version", "model"),
		Success:      true,
		Data:         data,
	}
}
