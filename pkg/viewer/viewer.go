// Package viewer browses a COCO detection dataset in a web browser.
//
// A session samples a view of the dataset and serves it over HTTP until
// the user closes it:
//
//	/                  index of the view with per-category counts
//	/sample/{id}       one image with its annotation table
//	/render/{id}.png   the image with boxes drawn (?boxes=false for none)
//	/image/{id}        the original image file
//	/api/samples       the view as JSON
//	/export.pdf        the view as a PDF review sheet
//	/close             ends the session
package viewer
