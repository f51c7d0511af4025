package split

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gardar/laydoc/pkg/convert"
)

type encoder func(io.Writer, image.Image) error

// encoders maps file extensions to the format written for them.
// Extensions not listed here get the source bytes.
var encoders = map[string]struct {
	format string
	encode encoder
}{
	".png":  {"png", png.Encode},
	".jpg":  {"jpeg", encodeJPEG},
	".jpeg": {"jpeg", encodeJPEG},
	".gif":  {"gif", encodeGIF},
	".bmp":  {"bmp", bmp.Encode},
	".tif":  {"tiff", encodeTIFF},
	".tiff": {"tiff", encodeTIFF},
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
}

func encodeGIF(w io.Writer, img image.Image) error {
	return gif.Encode(w, img, nil)
}

func encodeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// SaveImage writes encoded image data to path and returns the bytes written.
// The data must decode. When the extension of path names a different format
// than the data is in, the image is re-encoded into that format.
func SaveImage(path string, data []byte) (int64, error) {
	_, _, source, err := convert.ImageSize(data)
	if err != nil {
		return 0, err
	}

	out := data
	target, ok := encoders[strings.ToLower(filepath.Ext(path))]
	if ok && target.format != source {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return 0, fmt.Errorf("decode %s image: %w", source, err)
		}
		var buf bytes.Buffer
		if err := target.encode(&buf, img); err != nil {
			return 0, fmt.Errorf("encode %s image: %w", target.format, err)
		}
		out = buf.Bytes()
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return 0, err
	}
	return int64(len(out)), nil
}
