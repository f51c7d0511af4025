package gdocai

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/laydoc/pkg/docsynth"
)

func normRect(x0, y0, x1, y1 float32) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{
		BoundingPoly: &documentaipb.BoundingPoly{
			NormalizedVertices: []*documentaipb.NormalizedVertex{
				{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
			},
		},
	}
}

func testDocument() *documentaipb.Document {
	return &documentaipb.Document{
		Pages: []*documentaipb.Document_Page{{
			PageNumber: 1,
			Dimension:  &documentaipb.Document_Page_Dimension{Width: 800, Height: 1000, Unit: "pixels"},
			Tables: []*documentaipb.Document_Page_Table{
				{Layout: normRect(0.125, 0.5, 0.875, 0.75)},
			},
			VisualElements: []*documentaipb.Document_Page_VisualElement{
				{Type: "image", Layout: normRect(0.5, 0.125, 0.875, 0.375)},
				{Type: "checkbox", Layout: normRect(0, 0, 0.0625, 0.0625)},
			},
			Blocks: []*documentaipb.Document_Page_Block{
				{Layout: normRect(0.125, 0.125, 0.375, 0.25)},
				// inside the table, dropped
				{Layout: normRect(0.25, 0.5625, 0.5, 0.625)},
				// pixel vertices only
				{Layout: &documentaipb.Document_Page_Layout{
					BoundingPoly: &documentaipb.BoundingPoly{
						Vertices: []*documentaipb.Vertex{{X: 100, Y: 875}, {X: 700, Y: 875}, {X: 700, Y: 1000}, {X: 100, Y: 1000}},
					},
				}},
				// no geometry, dropped
				{Layout: &documentaipb.Document_Page_Layout{}},
			},
		}},
	}
}

func TestLinesFromDocument(t *testing.T) {
	got := LinesFromDocument(testDocument())
	want := []string{
		"63 0.125 0.5 0.875 0.5 0.875 0.75 0.125 0.75",
		"23 0.5 0.125 0.875 0.125 0.875 0.375 0.5 0.375",
		"48 0.125 0.125 0.375 0.125 0.375 0.25 0.125 0.25",
		"48 0.125 0.875 0.875 0.875 0.875 1 0.125 1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LinesFromDocument:\n got %q\nwant %q", got, want)
	}

	for _, line := range got {
		if _, ok := docsynth.ParseLine(line); !ok {
			t.Fatalf("line %q does not parse back", line)
		}
	}
}

func TestLayoutQuadPolygon(t *testing.T) {
	layout := &documentaipb.Document_Page_Layout{
		BoundingPoly: &documentaipb.BoundingPoly{
			NormalizedVertices: []*documentaipb.NormalizedVertex{
				{X: 0.25, Y: 0.25}, {X: 0.75, Y: 0.125}, {X: 0.5, Y: 0.5},
			},
		},
	}
	quad, ok := layoutQuad(layout, nil)
	if !ok {
		t.Fatal("expected a quad")
	}
	want := docsynth.RectQuad(0.25, 0.125, 0.75, 0.5)
	if quad != want {
		t.Fatalf("quad = %v, want %v", quad, want)
	}

	if _, ok := layoutQuad(nil, nil); ok {
		t.Fatal("nil layout should not produce a quad")
	}
}

func TestLinesFromNilDocument(t *testing.T) {
	if lines := LinesFromDocument(nil); lines != nil {
		t.Fatalf("expected nil, got %v", lines)
	}
}

func TestRecordFromDocument(t *testing.T) {
	rec := RecordFromDocument("page.png", []byte{1, 2}, &documentaipb.Document{})
	if rec.Filename != "page.png" || !bytes.Equal(rec.ImageData, []byte{1, 2}) {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.AnnoString == nil || len(rec.AnnoString) != 0 {
		t.Fatalf("expected empty annotation list, got %#v", rec.AnnoString)
	}
}

func TestMimeType(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	got, err := MimeType(buf.Bytes())
	if err != nil {
		t.Fatalf("MimeType returned error: %v", err)
	}
	if got != "image/png" {
		t.Fatalf("MimeType = %s", got)
	}
	if _, err := MimeType([]byte("%PDF-1.7")); err == nil {
		t.Fatal("expected error for non-image data")
	}
}

func TestConfigValidate(t *testing.T) {
	var nilCfg *Config
	if err := nilCfg.Validate(); err == nil {
		t.Fatal("expected error for nil config")
	}

	cfg := &Config{Location: "eu"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "project_id, processor_id") {
		t.Fatalf("unexpected error %v", err)
	}

	cfg = &Config{ProjectID: "p", Location: "eu", ProcessorID: "abc"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if got := cfg.ProcessorName(); got != "projects/p/locations/eu/processors/abc" {
		t.Fatalf("ProcessorName = %s", got)
	}
}

func TestSaveResponse(t *testing.T) {
	dir := t.TempDir()
	p, err := SaveResponse(dir, "scans/page7.png", testDocument())
	if err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}
	if want := filepath.Join(dir, "page7.json"); p != want {
		t.Fatalf("path = %s, want %s", p, want)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if !strings.Contains(string(data), "visualElements") {
		t.Fatalf("response JSON missing field: %s", data)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Fatalf("response JSON not indented: %s", data)
	}
}
