package timeline

import (
	"strings"

	"github.com/tumilabs/rumiai/types"
)

// Size-class thresholds over normalized bbox area, applied when the OCR
// output does not classify text size itself.
const (
	sizeXLArea = 0.15
	sizeLArea  = 0.08
	sizeMArea  = 0.03
)

// normalizeSizeClass maps free-form size values into {S,M,L,XL}.
func normalizeSizeClass(size string) string {
	switch strings.ToUpper(strings.TrimSpace(size)) {
	case types.SizeXL, "XLARGE", "EXTRA_LARGE":
		return types.SizeXL
	case types.SizeL, "LARGE":
		return types.SizeL
	case types.SizeM, "MEDIUM":
		return types.SizeM
	case types.SizeS, "SMALL":
		return types.SizeS
	default:
		return types.SizeM
	}
}

// SizeClassFromArea derives a size class from a normalized bbox area.
func SizeClassFromArea(area float64) string {
	switch {
	case area >= sizeXLArea:
		return types.SizeXL
	case area >= sizeLArea:
		return types.SizeL
	case area >= sizeMArea:
		return types.SizeM
	default:
		return types.SizeS
	}
}

// normalizePosition maps a position string to "row-column" over
// {top,middle,bottom}x{left,center,right}, deriving it from the bbox center
// when absent.
func normalizePosition(position string, bbox types.BBox) string {
	p := strings.ToLower(strings.TrimSpace(position))
	if p != "" {
		// Accept "bottom-center", "bottom center", "bottom_center".
		p = strings.NewReplacer(" ", "-", "_", "-").Replace(p)
		parts := strings.SplitN(p, "-", 2)
		if len(parts) == 2 && validRow(parts[0]) && validCol(parts[1]) {
			return parts[0] + "-" + parts[1]
		}
	}
	return positionFromBBox(bbox)
}

func validRow(r string) bool { return r == "top" || r == "middle" || r == "bottom" }
func validCol(c string) bool { return c == "left" || c == "center" || c == "right" }

func positionFromBBox(bbox types.BBox) string {
	cx := bbox.X + bbox.W/2
	cy := bbox.Y + bbox.H/2

	row := "middle"
	if cy < 1.0/3 {
		row = "top"
	} else if cy > 2.0/3 {
		row = "bottom"
	}

	col := "center"
	if cx < 1.0/3 {
		col = "left"
	} else if cx > 2.0/3 {
		col = "right"
	}

	return row + "-" + col
}

// normalizeCategory maps free-form category values into the known set,
// defaulting to "other".
func normalizeCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case types.TextCategoryHeadline:
		return types.TextCategoryHeadline
	case types.TextCategorySubtitle:
		return types.TextCategorySubtitle
	case types.TextCategoryCTA, "call_to_action":
		return types.TextCategoryCTA
	case types.TextCategoryCaption:
		return types.TextCategoryCaption
	case types.TextCategoryNumber:
		return types.TextCategoryNumber
	case types.TextCategoryHashtag:
		return types.TextCategoryHashtag
	default:
		return types.TextCategoryOther
	}
}
