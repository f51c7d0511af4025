package convert

import (
	"bytes"
	"fmt"
	"image"

	// Decoders for the formats page images come in.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageSize returns the pixel width and height of encoded image bytes along
// with the registered format name
func ImageSize(data []byte) (int, int, string, error) {
	if len(data) == 0 {
		return 0, 0, "", fmt.Errorf("image data is empty")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("failed to decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}
