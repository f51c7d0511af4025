package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gardar/laydoc/pkg/coco"
	"github.com/gardar/laydoc/pkg/cocopdf"
)

func writeDataset(t *testing.T, n int) (string, string) {
	t.Helper()
	dir := t.TempDir()
	doc := &coco.Document{
		Categories: []coco.Category{
			{ID: 1, Name: "Text", Supercategory: "layout"},
			{ID: 2, Name: "Figure", Supercategory: "layout"},
		},
		Images:      []coco.Image{},
		Annotations: []coco.Annotation{},
	}
	for i := 1; i <= n; i++ {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 30, 20))); err != nil {
			t.Fatalf("encode png: %v", err)
		}
		name := fmt.Sprintf("page%d.png", i)
		if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
			t.Fatalf("write image: %v", err)
		}
		doc.Images = append(doc.Images, coco.Image{ID: i, FileName: name, Width: 30, Height: 20, License: 1})
		doc.Annotations = append(doc.Annotations, coco.Annotation{
			ID: i, ImageID: i, CategoryID: 1 + i%2,
			BBox: coco.BBox{1, 1, 10, 5}, Area: 50, Segmentation: [][]float64{},
		})
	}
	labels := filepath.Join(t.TempDir(), "val.json")
	if err := coco.Save(labels, doc); err != nil {
		t.Fatalf("save labels: %v", err)
	}
	return dir, labels
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := executeWithLog(t, args...)
	return stdout, err
}

func executeWithLog(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestExportPDF(t *testing.T) {
	dataDir, labels := writeDataset(t, 3)
	out := filepath.Join(t.TempDir(), "review.pdf")

	stdout, err := execute(t, "-i", dataDir, "-l", labels, "-t", "2", "--pdf", out, "--log-level", "error")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(stdout, "2 pages and 2 layers") {
		t.Fatalf("unexpected output %q", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	layers, err := cocopdf.LayerNames(data)
	if err != nil {
		t.Fatalf("LayerNames: %v", err)
	}
	if len(layers) != 2 || layers[0] != "Text" || layers[1] != "Figure" {
		t.Fatalf("layers = %v", layers)
	}
}

func TestRequiresPaths(t *testing.T) {
	if _, err := execute(t, "-t", "5"); err == nil {
		t.Fatal("expected error without data and labels paths")
	}
}

func TestMissingLabels(t *testing.T) {
	dataDir, _ := writeDataset(t, 1)
	_, err := execute(t, "-i", dataDir, "-l", filepath.Join(dataDir, "nope.json"), "--pdf", filepath.Join(t.TempDir(), "x.pdf"))
	if err == nil {
		t.Fatal("expected error for missing labels file")
	}
}

func TestWarnsOnInvalidLabels(t *testing.T) {
	dataDir, labels := writeDataset(t, 2)
	doc, err := coco.Load(labels)
	if err != nil {
		t.Fatalf("load labels: %v", err)
	}
	doc.Annotations[0].Area = 1
	if err := coco.Save(labels, doc); err != nil {
		t.Fatalf("save labels: %v", err)
	}

	out := filepath.Join(t.TempDir(), "review.pdf")
	_, logs, err := executeWithLog(t, "-i", dataDir, "-l", labels, "--pdf", out, "--log-format", "json")
	if err != nil {
		t.Fatalf("invalid labels must only warn, got %v", err)
	}
	if !strings.Contains(logs, "labels failed validation") || !strings.Contains(logs, "does not match bbox") {
		t.Fatalf("expected validation warning, got %q", logs)
	}
}

func TestValidLabelsDoNotWarn(t *testing.T) {
	dataDir, labels := writeDataset(t, 2)
	out := filepath.Join(t.TempDir(), "review.pdf")
	_, logs, err := executeWithLog(t, "-i", dataDir, "-l", labels, "--pdf", out, "--log-format", "json")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.Contains(logs, "labels failed validation") {
		t.Fatalf("unexpected warning %q", logs)
	}
}
