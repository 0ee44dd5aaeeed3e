// Package adapters normalizes raw analyzer outputs into typed
// MLAnalysisResult values.
//
// Each adapter is a pure function over the raw JSON bytes of one analyzer.
// Adapters tolerate the common layout variants each analyzer has shipped,
// rename known-equivalent fields, and never invent data: missing fields
// become explicit absences, and unrecognized structure yields
// success=false with empty data rather than an error.
package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/tumilabs/rumiai/logger"
	"github.com/tumilabs/rumiai/metrics"
	"github.com/tumilabs/rumiai/types"
)

// unmarshalObject parses raw bytes into a generic JSON object.
func unmarshalObject(raw []byte) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

// inputShapeFailure records the recovery and builds the failed result.
func inputShapeFailure(modelName, msg string) types.MLAnalysisResult {
	metrics.Recovery(metrics.KindInputShape)
	return types.FailedResult(modelName, msg)
}

// dropUnparseable records a dropped record whose timestamp could not be
// coerced to seconds.
func dropUnparseable(modelName string, value any) {
	metrics.Recovery(metrics.KindTimestampParse)
	logger.Warn("dropping record with unparseable timestamp",
		"model", modelName, "value", fmt.Sprint(value))
}

// firstSlice returns the first of the given keys holding a JSON array.
func firstSlice(m map[string]any, keys ...string) ([]any, bool) {
	for _, k := range keys {
		if v, ok := m[k].([]any); ok {
			return v, true
		}
	}
	return nil, false
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func getString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			return s
		}
	}
	return ""
}

func getFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func getInt(m map[string]any, keys ...string) (int, bool) {
	f, ok := getFloat(m, keys...)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func getBool(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if b, ok := m[k].(bool); ok {
			return b
		}
	}
	return false
}

// getBBox reads a bounding box from either {x,y,w,h}, {x,y,width,height},
// or a [x,y,w,h] array. Coordinates are assumed normalized.
func getBBox(v any) (*types.BBox, bool) {
	switch b := v.(type) {
	case map[string]any:
		x, okX := getFloat(b, "x", "left")
		y, okY := getFloat(b, "y", "top")
		w, okW := getFloat(b, "w", "width")
		h, okH := getFloat(b, "h", "height")
		if okX && okY && okW && okH {
			return &types.BBox{X: x, Y: y, W: w, H: h}, true
		}
	case []any:
		if len(b) == 4 {
			vals := make([]float64, 4)
			for i, raw := range b {
				f, ok := raw.(float64)
				if !ok {
					return nil, false
				}
				vals[i] = f
			}
			return &types.BBox{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, true
		}
	}
	return nil, false
}
