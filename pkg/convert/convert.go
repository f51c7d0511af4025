// Package convert turns raw layout dataset records into COCO detection
// documents with a simplified three class label set.
//
// Conversion happens in two passes. The first pass decodes every image to
// learn its pixel size, assigns sequential image and annotation ids and turns
// the normalized corner coordinates of each annotation line into an absolute
// [x, y, w, h] box. The second pass maps the detailed source categories to
// text, figure or table through an ordered list of keyword rules.
//
// Main Functions:
//
// - Convert: Builds a COCO document from records
// - BuildRemap: Computes the detailed to simplified category table
// - ImageSize: Reads the pixel size of encoded image bytes
package convert

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/gardar/laydoc/pkg/coco"
	"github.com/gardar/laydoc/pkg/docsynth"
)

// Convert builds a COCO document from records, in input order.
//
// Image ids and annotation ids both start at 1 and increase by one per
// emitted entry. Lines with fewer than docsynth.MinTokens tokens are skipped.
// Boxes are neither clamped nor normalized, so a bottom-right corner left of
// or above the top-left corner yields a negative width or height.
// A record whose image cannot be decoded aborts the conversion.
func Convert(records []docsynth.Record, cfg Config) (*coco.Document, error) {
	logger := cfg.logger()

	doc := &coco.Document{
		Info:        cfg.Info,
		Licenses:    cfg.Licenses,
		Categories:  SimplifiedCategories(),
		Images:      make([]coco.Image, 0, len(records)),
		Annotations: make([]coco.Annotation, 0),
	}

	bar := newProgressBar(cfg.Progress, len(records), "Converting to COCO format")

	imageID := 1
	annotationID := 1
	skipped := 0
	for _, rec := range records {
		width, height, _, err := ImageSize(rec.ImageData)
		if err != nil {
			return nil, fmt.Errorf("decode image %q: %w", rec.Filename, err)
		}

		doc.Images = append(doc.Images, coco.Image{
			ID:           imageID,
			FileName:     rec.Filename,
			Width:        width,
			Height:       height,
			License:      1,
			DateCaptured: "",
		})

		w, h := float64(width), float64(height)
		for _, raw := range rec.AnnoString {
			line, ok := docsynth.ParseLine(raw)
			if !ok {
				skipped++
				continue
			}

			bbox := coco.NewBBox(line.X0*w, line.Y0*h, line.X1*w, line.Y1*h)
			doc.Annotations = append(doc.Annotations, coco.Annotation{
				ID:           annotationID,
				ImageID:      imageID,
				CategoryID:   line.CategoryID, // detailed id, remapped below
				BBox:         bbox,
				Area:         bbox.Width() * bbox.Height(),
				Segmentation: [][]float64{},
				IsCrowd:      0,
			})
			annotationID++
		}

		imageID++
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	remap := BuildRemap(cfg.DetailedCategories, cfg.Rules)
	for i := range doc.Annotations {
		doc.Annotations[i].CategoryID = remap.Lookup(doc.Annotations[i].CategoryID)
	}

	logger.Info("converted records",
		"images", len(doc.Images),
		"annotations", len(doc.Annotations),
		"skipped_lines", skipped,
	)
	return doc, nil
}

func newProgressBar(w io.Writer, max int, description string) *progressbar.ProgressBar {
	if w == nil {
		return nil
	}
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)
}
