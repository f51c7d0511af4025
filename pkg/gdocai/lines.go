package gdocai

import (
	"math"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/laydoc/pkg/docsynth"
)

// visualCategories maps Document AI visual element types to detailed
// category ids. Other types are dropped.
var visualCategories = map[string]int{
	"image":        docsynth.CategoryFigure,
	"figure":       docsynth.CategoryFigure,
	"math_formula": docsynth.CategoryFormula,
}

type region struct {
	category int
	quad     [8]float64
}

// LinesFromDocument converts the layout of every page into raw annotation
// lines. Tables become table regions, image and figure visual elements
// become figures, and the remaining text blocks become paragraphs. Blocks
// whose center falls inside a table or figure are left out.
func LinesFromDocument(doc *documentaipb.Document) []string {
	if doc == nil {
		return nil
	}
	var lines []string
	for _, page := range doc.Pages {
		for _, r := range pageRegions(page) {
			lines = append(lines, docsynth.FormatLine(r.category, r.quad))
		}
	}
	return lines
}

func pageRegions(page *documentaipb.Document_Page) []region {
	var regions []region
	for _, table := range page.Tables {
		if quad, ok := layoutQuad(table.Layout, page.Dimension); ok {
			regions = append(regions, region{category: docsynth.CategoryTable, quad: quad})
		}
	}
	for _, el := range page.VisualElements {
		category, ok := visualCategories[strings.ToLower(el.Type)]
		if !ok {
			continue
		}
		if quad, ok := layoutQuad(el.Layout, page.Dimension); ok {
			regions = append(regions, region{category: category, quad: quad})
		}
	}

	covered := len(regions)
	for _, block := range page.Blocks {
		quad, ok := layoutQuad(block.Layout, page.Dimension)
		if !ok || insideAny(quad, regions[:covered]) {
			continue
		}
		regions = append(regions, region{category: docsynth.CategoryParagraph, quad: quad})
	}
	return regions
}

// layoutQuad returns the four normalized vertices of a layout, clockwise
// from the top-left. Pixel vertices are normalized with the page dimension
// when no normalized ones are present. Polygons with another vertex count
// are replaced by their bounding rectangle.
func layoutQuad(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) ([8]float64, bool) {
	if layout == nil || layout.BoundingPoly == nil {
		return [8]float64{}, false
	}

	var xs, ys []float64
	if nv := layout.BoundingPoly.NormalizedVertices; len(nv) > 0 {
		for _, v := range nv {
			xs = append(xs, float64(v.X))
			ys = append(ys, float64(v.Y))
		}
	} else if v := layout.BoundingPoly.Vertices; len(v) > 0 && dim != nil && dim.Width > 0 && dim.Height > 0 {
		for _, p := range v {
			xs = append(xs, float64(p.X)/float64(dim.Width))
			ys = append(ys, float64(p.Y)/float64(dim.Height))
		}
	} else {
		return [8]float64{}, false
	}

	if len(xs) == 4 {
		var quad [8]float64
		for i := range xs {
			quad[2*i] = xs[i]
			quad[2*i+1] = ys[i]
		}
		return quad, true
	}

	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)
	for i := range xs {
		x0, x1 = math.Min(x0, xs[i]), math.Max(x1, xs[i])
		y0, y1 = math.Min(y0, ys[i]), math.Max(y1, ys[i])
	}
	return docsynth.RectQuad(x0, y0, x1, y1), true
}

func insideAny(quad [8]float64, regions []region) bool {
	cx := (quad[0] + quad[4]) / 2
	cy := (quad[1] + quad[5]) / 2
	for _, r := range regions {
		if cx >= r.quad[0] && cx <= r.quad[4] && cy >= r.quad[1] && cy <= r.quad[5] {
			return true
		}
	}
	return false
}
