package coco

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load reads and parses a COCO JSON file
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Decode parses a COCO document from r
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save writes doc to path, truncating any existing file.
// The parent directory must already exist.
func Save(path string, doc *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, doc); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes doc as compact JSON.
// Nil slices are written as empty arrays so the output always has every
// top-level COCO key.
func Encode(w io.Writer, doc *Document) error {
	out := *doc
	if out.Licenses == nil {
		out.Licenses = []License{}
	}
	if out.Categories == nil {
		out.Categories = []Category{}
	}
	if out.Images == nil {
		out.Images = []Image{}
	}
	if out.Annotations == nil {
		out.Annotations = []Annotation{}
	} else {
		out.Annotations = make([]Annotation, len(doc.Annotations))
		for i, ann := range doc.Annotations {
			if ann.Segmentation == nil {
				ann.Segmentation = [][]float64{}
			}
			out.Annotations[i] = ann
		}
	}
	return json.NewEncoder(w).Encode(&out)
}
