package coco

import (
	"errors"
	"fmt"
)

// Index provides lookups over a Document.
// It keeps references into the document, which must not be modified while
// the index is in use.
type Index struct {
	images     map[int]*Image
	byImage    map[int][]*Annotation
	categories map[int]*Category
}

// NewIndex builds the lookup tables for doc
func NewIndex(doc *Document) *Index {
	idx := &Index{
		images:     make(map[int]*Image, len(doc.Images)),
		byImage:    make(map[int][]*Annotation, len(doc.Images)),
		categories: make(map[int]*Category, len(doc.Categories)),
	}
	for i := range doc.Images {
		idx.images[doc.Images[i].ID] = &doc.Images[i]
	}
	for i := range doc.Annotations {
		ann := &doc.Annotations[i]
		idx.byImage[ann.ImageID] = append(idx.byImage[ann.ImageID], ann)
	}
	for i := range doc.Categories {
		idx.categories[doc.Categories[i].ID] = &doc.Categories[i]
	}
	return idx
}

// Image returns the image with the given id
func (idx *Index) Image(id int) (*Image, bool) {
	img, ok := idx.images[id]
	return img, ok
}

// Annotations returns the annotations of an image in document order
func (idx *Index) Annotations(imageID int) []*Annotation {
	return idx.byImage[imageID]
}

// CategoryName returns the name of a category, or its id as text when the
// category is not declared
func (idx *Index) CategoryName(id int) string {
	if c, ok := idx.categories[id]; ok {
		return c.Name
	}
	return fmt.Sprintf("category %d", id)
}

// CategoryCounts counts annotations per category id over the given images
func (idx *Index) CategoryCounts(images []Image) map[int]int {
	counts := make(map[int]int)
	for _, img := range images {
		for _, ann := range idx.byImage[img.ID] {
			counts[ann.CategoryID]++
		}
	}
	return counts
}

// Validate checks the structural invariants of a document: image and
// annotation ids strictly increasing, every annotation referencing an
// existing image and a declared category, and area equal to the box area.
func Validate(doc *Document) error {
	var errs []error

	images := make(map[int]bool, len(doc.Images))
	for i, img := range doc.Images {
		if i > 0 && img.ID <= doc.Images[i-1].ID {
			errs = append(errs, fmt.Errorf("image %d: id not increasing after %d", img.ID, doc.Images[i-1].ID))
		}
		images[img.ID] = true
	}

	categories := make(map[int]bool, len(doc.Categories))
	for _, c := range doc.Categories {
		categories[c.ID] = true
	}

	for i, ann := range doc.Annotations {
		if i > 0 && ann.ID <= doc.Annotations[i-1].ID {
			errs = append(errs, fmt.Errorf("annotation %d: id not increasing after %d", ann.ID, doc.Annotations[i-1].ID))
		}
		if !images[ann.ImageID] {
			errs = append(errs, fmt.Errorf("annotation %d: unknown image %d", ann.ID, ann.ImageID))
		}
		if !categories[ann.CategoryID] {
			errs = append(errs, fmt.Errorf("annotation %d: undeclared category %d", ann.ID, ann.CategoryID))
		}
		if ann.Area != ann.BBox.Area() {
			errs = append(errs, fmt.Errorf("annotation %d: area %v does not match bbox %v", ann.ID, ann.Area, ann.BBox))
		}
	}

	return errors.Join(errs...)
}
