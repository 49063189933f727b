package format

import (
	"bytes"
	"image"
	"image/png"
	"io"
)

type pngCodec struct{}

func (pngCodec) Tag() Tag             { return PNG }
func (pngCodec) Name() string         { return "PNG" }
func (pngCodec) Extensions() []string { return []string{"png"} }

func (pngCodec) Decode(data []byte) (image.Image, error) {
	return png.Decode(bytes.NewReader(data))
}

// Encode is lossless at every level; the level only trades speed for size.
func (pngCodec) Encode(w io.Writer, img image.Image, level Level) error {
	enc := &png.Encoder{CompressionLevel: pngCompression(level)}
	return enc.Encode(w, img)
}

func (pngCodec) Conform(img image.Image) image.Image { return cloneImage(img) }

func (pngCodec) Level(q *float64) Level { return pngLevel(q) }
