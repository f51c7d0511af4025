// Package cocopdf exports a sample of a COCO dataset as a PDF review sheet.
//
// Every image becomes one page sized to the image, with the picture drawn
// edge to edge. Annotation boxes are drawn on top, one optional content
// layer per category, so compatible PDF readers can toggle categories on
// and off while reviewing labels.
//
// Main Functions:
//
// - Export: Builds the review sheet
// - LayerNames: Lists the layers of an exported sheet
package cocopdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/laydoc/pkg/coco"
)

// Page is one image of the sheet with its annotations
type Page struct {
	Image       coco.Image
	Data        []byte
	Annotations []coco.Annotation
}

// Export builds a PDF with one page per entry of pages.
// Categories are looked up in categories; ids missing there still get a
// layer named after the id.
func Export(pages []Page, categories []coco.Category, cfg Config) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to export")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	if cfg.Title != "" {
		pdf.SetTitle(cfg.Title, true)
	}
	pdf.SetCreator("laydoc", false)

	names := make(map[int]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	layers := newLayerSet(pdf, names, cfg.LayerPrefix)
	for _, c := range categories {
		layers.get(c.ID)
	}

	for i, page := range pages {
		if err := addPage(pdf, i, page, layers, cfg); err != nil {
			return nil, fmt.Errorf("page %d (%s): %w", i+1, page.Image.FileName, err)
		}
	}
	pdf.OpenLayerPane()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	logger.Debug("exported review sheet", "pages", len(pages), "layers", len(layers.ids), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func addPage(pdf *fpdf.Fpdf, idx int, page Page, layers *layerSet, cfg Config) error {
	data, imageType, err := pdfImage(page.Data)
	if err != nil {
		return err
	}

	w, h := float64(page.Image.Width), float64(page.Image.Height)
	if w <= 0 || h <= 0 {
		imgCfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to decode image config: %w", err)
		}
		w, h = float64(imgCfg.Width), float64(imgCfg.Height)
	}

	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

	imageName := fmt.Sprintf("img%d", idx)
	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
	pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(data))
	pdf.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")

	byCategory := make(map[int][]coco.Annotation)
	var order []int
	for _, ann := range page.Annotations {
		if _, ok := byCategory[ann.CategoryID]; !ok {
			order = append(order, ann.CategoryID)
		}
		byCategory[ann.CategoryID] = append(byCategory[ann.CategoryID], ann)
	}
	for _, id := range order {
		drawBoxes(pdf, layers.get(id), layers.names[id], byCategory[id], cfg)
	}
	return pdf.Error()
}

// drawBoxes draws the annotations of one category onto its layer.
func drawBoxes(pdf *fpdf.Fpdf, layer int, label string, anns []coco.Annotation, cfg Config) {
	c := coco.CategoryColor(anns[0].CategoryID)

	pdf.BeginLayer(layer)
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	pdf.SetLineWidth(cfg.LineWidth)
	if cfg.ShowLabels {
		pdf.SetFont(cfg.Font.Name, cfg.Font.Style, cfg.Font.Size)
		pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
	}
	text := latin1(label)
	for _, ann := range anns {
		b := ann.BBox
		pdf.Rect(b.X(), b.Y(), b.Width(), b.Height(), "D")
		if cfg.ShowLabels && text != "" {
			pdf.Text(b.X()+cfg.LineWidth, b.Y()+cfg.Font.Size, text)
		}
	}
	pdf.EndLayer()
}

// pdfImage returns data in a format fpdf embeds, converting to PNG when needed.
func pdfImage(data []byte) ([]byte, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image config: %w", err)
	}
	switch format {
	case "png", "jpeg", "gif":
		return data, strings.ToUpper(format), nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("failed to convert %s image to png: %w", format, err)
	}
	return buf.Bytes(), "PNG", nil
}

// latin1 converts text for the core PDF fonts, replacing what ISO-8859-1
// cannot represent.
func latin1(s string) string {
	out, err := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()).String(s)
	if err != nil {
		return s
	}
	return out
}

// layerName keeps the characters fpdf can store in a UTF-16 layer name.
func layerName(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xffff {
			return '?'
		}
		return r
	}, strings.ToValidUTF8(s, "?"))
}

type layerSet struct {
	pdf    *fpdf.Fpdf
	names  map[int]string
	prefix string
	ids    map[int]int
}

func newLayerSet(pdf *fpdf.Fpdf, names map[int]string, prefix string) *layerSet {
	return &layerSet{pdf: pdf, names: names, prefix: prefix, ids: make(map[int]int)}
}

// get returns the layer of a category, creating it on first use.
func (l *layerSet) get(categoryID int) int {
	if id, ok := l.ids[categoryID]; ok {
		return id
	}
	name, ok := l.names[categoryID]
	if !ok {
		name = fmt.Sprintf("category %d", categoryID)
		l.names[categoryID] = name
	}
	id := l.pdf.AddLayer(layerName(l.prefix+name), true)
	l.ids[categoryID] = id
	return id
}
