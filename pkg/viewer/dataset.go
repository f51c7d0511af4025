package viewer

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/gardar/laydoc/pkg/coco"
	"github.com/gardar/laydoc/pkg/cocopdf"
)

// Dataset is a COCO detection dataset: a labels file plus the directory
// holding its images.
type Dataset struct {
	Dir   string
	Doc   *coco.Document
	index *coco.Index
}

// Load reads the labels file and checks that the image directory exists.
// Images are read lazily.
func Load(dataPath, labelsPath string) (*Dataset, error) {
	info, err := os.Stat(dataPath)
	if err != nil {
		return nil, fmt.Errorf("data path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data path %s is not a directory", dataPath)
	}

	doc, err := coco.Load(labelsPath)
	if err != nil {
		return nil, err
	}
	return &Dataset{Dir: dataPath, Doc: doc, index: coco.NewIndex(doc)}, nil
}

// Index returns the lookup tables of the labels
func (d *Dataset) Index() *coco.Index { return d.index }

// Len returns the number of images in the labels file
func (d *Dataset) Len() int { return len(d.Doc.Images) }

// Take returns n distinct images chosen at random, or every image in a
// random order when the dataset has fewer than n.
func (d *Dataset) Take(n int, rng *rand.Rand) []coco.Image {
	if n <= 0 {
		return []coco.Image{}
	}
	n = min(n, len(d.Doc.Images))
	perm := rng.Perm(len(d.Doc.Images))
	view := make([]coco.Image, n)
	for i := range view {
		view[i] = d.Doc.Images[perm[i]]
	}
	return view
}

// ImagePath resolves the file of img inside the data directory.
// File names escaping the directory are rejected.
func (d *Dataset) ImagePath(img coco.Image) (string, error) {
	name := filepath.FromSlash(img.FileName)
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("image %d: file name %q is outside the data directory", img.ID, img.FileName)
	}
	return filepath.Join(d.Dir, name), nil
}

// ReadImage returns the encoded bytes of img
func (d *Dataset) ReadImage(img coco.Image) ([]byte, error) {
	path, err := d.ImagePath(img)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %d: %w", img.ID, err)
	}
	return data, nil
}

// Pages loads the images of a view for a PDF review sheet
func (d *Dataset) Pages(view []coco.Image) ([]cocopdf.Page, error) {
	pages := make([]cocopdf.Page, 0, len(view))
	for _, img := range view {
		data, err := d.ReadImage(img)
		if err != nil {
			return nil, err
		}
		var anns []coco.Annotation
		for _, ann := range d.index.Annotations(img.ID) {
			anns = append(anns, *ann)
		}
		pages = append(pages, cocopdf.Page{Image: img, Data: data, Annotations: anns})
	}
	return pages, nil
}
