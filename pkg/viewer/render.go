package viewer

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gardar/laydoc/pkg/coco"
)

// Render decodes an image and strokes every annotation box on it in its
// category color.
func Render(data []byte, anns []*coco.Annotation, lineWidth float64) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), src, bounds.Min, draw.Src)

	gc := draw2dimg.NewGraphicContext(canvas)
	gc.SetLineWidth(lineWidth)
	for _, ann := range anns {
		b := ann.BBox
		gc.SetStrokeColor(coco.CategoryColor(ann.CategoryID))
		gc.BeginPath()
		draw2dkit.Rectangle(gc, b.X(), b.Y(), b.X()+b.Width(), b.Y()+b.Height())
		gc.Stroke()
	}
	return canvas, nil
}

// RenderPNG renders the boxes and writes the result as PNG
func RenderPNG(w io.Writer, data []byte, anns []*coco.Annotation, lineWidth float64) error {
	img, err := Render(data, anns, lineWidth)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
