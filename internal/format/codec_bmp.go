package format

import (
	"bytes"
	"image"
	"io"

	"golang.org/x/image/bmp"
)

type bmpCodec struct{}

func (bmpCodec) Tag() Tag             { return BMP }
func (bmpCodec) Name() string         { return "BMP" }
func (bmpCodec) Extensions() []string { return []string{"bmp"} }

func (bmpCodec) Decode(data []byte) (image.Image, error) {
	return bmp.Decode(bytes.NewReader(data))
}

// Encode ignores level: BMP is stored uncompressed.
func (bmpCodec) Encode(w io.Writer, img image.Image, _ Level) error {
	return bmp.Encode(w, img)
}

func (bmpCodec) Conform(img image.Image) image.Image { return flattenOpaque(img) }

func (bmpCodec) Level(*float64) Level { return NotApplicable }
