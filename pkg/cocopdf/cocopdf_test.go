package cocopdf

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"reflect"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/gardar/laydoc/pkg/coco"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testPages(t *testing.T) []Page {
	t.Helper()
	return []Page{
		{
			Image: coco.Image{ID: 1, FileName: "a.png", Width: 200, Height: 100},
			Data:  encodePNG(t, 200, 100),
			Annotations: []coco.Annotation{
				{ID: 1, ImageID: 1, CategoryID: 0, BBox: coco.BBox{10, 10, 50, 20}},
				{ID: 2, ImageID: 1, CategoryID: 2, BBox: coco.BBox{60, 40, 100, 50}},
			},
		},
		{
			Image: coco.Image{ID: 2, FileName: "b.png", Width: 80, Height: 120},
			Data:  encodePNG(t, 80, 120),
			Annotations: []coco.Annotation{
				{ID: 3, ImageID: 2, CategoryID: 1, BBox: coco.BBox{5, 5, 30, 30}},
				{ID: 4, ImageID: 2, CategoryID: 9, BBox: coco.BBox{40, 60, -10, -10}},
			},
		},
	}
}

func TestExport(t *testing.T) {
	categories := []coco.Category{
		{ID: 0, Name: "Text"},
		{ID: 1, Name: "Figure"},
		{ID: 2, Name: "Table"},
	}
	data, err := Export(testPages(t), categories, DefaultConfig())
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", data[:8])
	}

	layers, err := LayerNames(data)
	if err != nil {
		t.Fatalf("LayerNames returned error: %v", err)
	}
	want := []string{"Text", "Figure", "Table", "category 9"}
	if !reflect.DeepEqual(layers, want) {
		t.Fatalf("layers = %v, want %v", layers, want)
	}
}

func TestExportLayerNamesUnicode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LayerPrefix = "gt "
	cfg.ShowLabels = false
	categories := []coco.Category{{ID: 0, Name: "Texto"}, {ID: 1, Name: "Fórmula (inline)"}, {ID: 2, Name: "表"}}

	data, err := Export(testPages(t)[:1], categories, cfg)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	layers, err := LayerNames(data)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"gt Texto", "gt Fórmula (inline)", "gt 表"}
	if !reflect.DeepEqual(layers, want) {
		t.Fatalf("layers = %q, want %q", layers, want)
	}
}

func TestExportConvertsImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	var bmpBuf, jpgBuf bytes.Buffer
	if err := bmp.Encode(&bmpBuf, img); err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(&jpgBuf, img, nil); err != nil {
		t.Fatal(err)
	}

	pages := []Page{
		{Image: coco.Image{FileName: "scan.bmp"}, Data: bmpBuf.Bytes()},
		{Image: coco.Image{FileName: "scan.jpg", Width: 40, Height: 30}, Data: jpgBuf.Bytes()},
	}
	if _, err := Export(pages, nil, DefaultConfig()); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
}

func TestExportErrors(t *testing.T) {
	if _, err := Export(nil, nil, DefaultConfig()); err == nil {
		t.Fatal("expected error for empty page list")
	}
	pages := []Page{{Image: coco.Image{FileName: "broken.png"}, Data: []byte("nope")}}
	if _, err := Export(pages, nil, DefaultConfig()); err == nil {
		t.Fatal("expected error for undecodable image")
	}
}

func TestLayerNamesEmpty(t *testing.T) {
	if _, err := LayerNames(nil); err == nil {
		t.Fatal("expected error for empty data")
	}
	layers, err := LayerNames([]byte("%PDF-1.4\n%%EOF"))
	if err != nil {
		t.Fatal(err)
	}
	if len(layers) != 0 {
		t.Fatalf("expected no layers, got %v", layers)
	}
}
