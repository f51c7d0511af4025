package docsynth

import (
	"math"
	"strconv"
	"strings"
)

// MinTokens is the number of whitespace separated tokens a line needs:
// a category id followed by four x/y vertex pairs.
const MinTokens = 9

// Line is a parsed annotation line.
// Only the top-left (tokens 1-2) and bottom-right (tokens 5-6) vertices take
// part in the box; the remaining vertices stay available in Tokens.
type Line struct {
	CategoryID int
	X0, Y0     float64 // Normalized top-left corner
	X1, Y1     float64 // Normalized bottom-right corner
	Tokens     []string
}

// ParseLine parses a raw annotation line.
// It reports false for lines with fewer than MinTokens tokens and for lines
// whose id or coordinates are not finite numbers; such lines are meant to be
// skipped.
func ParseLine(s string) (Line, bool) {
	tokens := strings.Fields(s)
	if len(tokens) < MinTokens {
		return Line{}, false
	}

	categoryID, err := strconv.Atoi(tokens[0])
	if err != nil {
		return Line{}, false
	}

	var coords [4]float64
	for i, idx := range [4]int{1, 2, 5, 6} {
		v, err := strconv.ParseFloat(tokens[idx], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Line{}, false
		}
		coords[i] = v
	}

	return Line{
		CategoryID: categoryID,
		X0:         coords[0],
		Y0:         coords[1],
		X1:         coords[2],
		Y1:         coords[3],
		Tokens:     tokens,
	}, true
}

// FormatLine renders a raw annotation line from a category id and the four
// normalized vertices (top-left, top-right, bottom-right, bottom-left).
func FormatLine(categoryID int, quad [8]float64) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(categoryID))
	for _, v := range quad {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return b.String()
}

// RectQuad expands an axis aligned box into the four vertex form used by
// FormatLine.
func RectQuad(x0, y0, x1, y1 float64) [8]float64 {
	return [8]float64{x0, y0, x1, y0, x1, y1, x0, y1}
}
