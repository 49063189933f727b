package format

import (
	"bytes"
	"image"
	"io"

	"github.com/chai2010/webp"
	xwebp "golang.org/x/image/webp"
)

type webpCodec struct{}

func (webpCodec) Tag() Tag             { return WebP }
func (webpCodec) Name() string         { return "WebP" }
func (webpCodec) Extensions() []string { return []string{"webp"} }

func (webpCodec) Decode(data []byte) (image.Image, error) {
	return xwebp.Decode(bytes.NewReader(data))
}

func (webpCodec) Encode(w io.Writer, img image.Image, level Level) error {
	return webp.Encode(w, img, &webp.Options{Quality: float32(lossyQuality(level))})
}

func (webpCodec) Conform(img image.Image) image.Image { return cloneImage(img) }

func (webpCodec) Level(q *float64) Level { return lossyLevel(q) }
