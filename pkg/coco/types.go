package coco

// Document represents a complete COCO detection annotation file
type Document struct {
	Info        Info         `json:"info"`
	Licenses    []License    `json:"licenses"`
	Categories  []Category   `json:"categories"`
	Images      []Image      `json:"images"`
	Annotations []Annotation `json:"annotations"`
}

// Info holds the dataset description block
type Info struct {
	Description string `json:"description"`
	Version     string `json:"version"`
	Year        int    `json:"year"`
	Contributor string `json:"contributor"`
	DateCreated string `json:"date_created"`
}

// License is referenced by images through their License field
type License struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Category is a detection label
type Category struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory"`
}

// Image is one image of the dataset
type Image struct {
	ID           int    `json:"id"`            // Unique, 1-based
	FileName     string `json:"file_name"`     // Path relative to the image directory
	Width        int    `json:"width"`         // Pixel width
	Height       int    `json:"height"`        // Pixel height
	License      int    `json:"license"`       // License id
	DateCaptured string `json:"date_captured"` // Free form, usually empty
}

// Annotation is one labelled object instance
type Annotation struct {
	ID           int         `json:"id"`           // Unique, 1-based
	ImageID      int         `json:"image_id"`     // Parent image
	CategoryID   int         `json:"category_id"`  // Label
	BBox         BBox        `json:"bbox"`         // Absolute pixel box
	Area         float64     `json:"area"`         // BBox width * height
	Segmentation [][]float64 `json:"segmentation"` // Polygons, empty for box-only data
	IsCrowd      int         `json:"iscrowd"`      // 0 or 1
}

// BBox is a COCO box: top-left corner followed by width and height,
// all in pixels. Width and height are not required to be positive.
type BBox [4]float64

// NewBBox creates a box from its top-left and bottom-right corners
func NewBBox(x0, y0, x1, y1 float64) BBox {
	return BBox{x0, y0, x1 - x0, y1 - y0}
}

// X returns the left coordinate
func (b BBox) X() float64 { return b[0] }

// Y returns the top coordinate
func (b BBox) Y() float64 { return b[1] }

// Width returns the box width
func (b BBox) Width() float64 { return b[2] }

// Height returns the box height
func (b BBox) Height() float64 { return b[3] }

// Area returns width times height, without taking absolute values
func (b BBox) Area() float64 { return b[2] * b[3] }

// DefaultInfo returns the info block written by the converter
func DefaultInfo() Info {
	return Info{
		Description: "Converted dataset",
		Version:     "1.0",
		Year:        2023,
		Contributor: "",
		DateCreated: "",
	}
}

// DefaultLicenses returns the single placeholder license written by the converter
func DefaultLicenses() []License {
	return []License{{ID: 1, Name: "Unknown", URL: ""}}
}
