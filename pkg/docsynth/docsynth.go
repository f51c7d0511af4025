// Package docsynth reads and writes the raw layout dataset that the COCO
// conversion starts from.
//
// A dataset is a sequence of Records, one per page image. Each record carries
// the image bytes and a list of annotation strings in the raw line format:
//
//	<category id> x0 y0 x1 y1 x2 y2 x3 y3
//
// where the eight coordinates are the four normalized vertices of the region,
// clockwise from the top-left corner. Category ids index the fixed vocabulary
// in DetailedCategories.
//
// Datasets are stored as parquet files with the columns filename, image_data
// and anno_string; ReadParquet and WriteParquet handle that layout.
package docsynth

// Record is one page image with its raw annotation strings.
type Record struct {
	Filename   string   // Image file name, used verbatim when writing images
	ImageData  []byte   // Encoded raster (PNG, JPEG, ...)
	AnnoString []string // Raw annotation lines
}
