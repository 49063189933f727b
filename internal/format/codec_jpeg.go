package format

import (
	"bytes"
	"image"
	"image/jpeg"
	"io"
)

type jpegCodec struct{}

func (jpegCodec) Tag() Tag             { return JPEG }
func (jpegCodec) Name() string         { return "JPEG" }
func (jpegCodec) Extensions() []string { return []string{"jpg", "jpeg", "jfif"} }

func (jpegCodec) Decode(data []byte) (image.Image, error) {
	return jpeg.Decode(bytes.NewReader(data))
}

func (jpegCodec) Encode(w io.Writer, img image.Image, level Level) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: lossyQuality(level)})
}

func (jpegCodec) Conform(img image.Image) image.Image { return flattenOpaque(img) }

func (jpegCodec) Level(q *float64) Level { return lossyLevel(q) }
