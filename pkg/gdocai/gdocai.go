// Package gdocai pre-labels page images with Google Document AI.
//
// A page image is sent to a Document AI layout or OCR processor, and the
// tables, visual elements and text blocks it detects are written back as
// raw annotation lines, so new pages can be added to a dataset in the same
// format the converter reads.
//
// Main Functions:
//
// - ProcessImage: Sends an image to Google Document AI for processing
// - LinesFromDocument: Converts the detected layout to raw annotation lines
// - Label: Processes an image and returns it as a dataset record
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR or layout parsing
// - Authentication via GOOGLE_APPLICATION_CREDENTIALS environment variable
package gdocai

import (
	"context"
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/laydoc/pkg/docsynth"
)

// Label processes one page image with Document AI and returns it as a record
func Label(ctx context.Context, filename string, data []byte, cfg *Config) (docsynth.Record, error) {
	mimeType, err := MimeType(data)
	if err != nil {
		return docsynth.Record{}, fmt.Errorf("%s: %w", filename, err)
	}
	doc, err := ProcessImage(ctx, data, mimeType, cfg)
	if err != nil {
		return docsynth.Record{}, fmt.Errorf("%s: %w", filename, err)
	}
	return RecordFromDocument(filename, data, doc), nil
}

// RecordFromDocument pairs an image with the layout Document AI found in it
func RecordFromDocument(filename string, data []byte, doc *documentaipb.Document) docsynth.Record {
	lines := LinesFromDocument(doc)
	if lines == nil {
		lines = []string{}
	}
	return docsynth.Record{
		Filename:   filename,
		ImageData:  data,
		AnnoString: lines,
	}
}
