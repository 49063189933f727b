package format

import (
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/disintegration/imaging"
)

// Codec is the capability set a format contributes to the registry. External
// formats implement it and call Registry.Register.
type Codec interface {
	Tag() Tag
	// Name is the display name shown by the formats listing.
	Name() string
	// Extensions lists the file extensions without dot; the first is canonical.
	Extensions() []string
	Decode(data []byte) (image.Image, error)
	Encode(w io.Writer, img image.Image, level Level) error
	// Conform returns a freshly allocated copy of img that satisfies the
	// format's constraints. The input is never retained.
	Conform(img image.Image) image.Image
	// Level maps a quality percentage to the format's parameter; nil selects
	// the default.
	Level(q *float64) Level
}

// Matcher is implemented by external codecs that can recognise their own
// encoded bytes. Built-in formats are recognised by pkg/imgutil.
type Matcher interface {
	Match(header []byte) bool
}

// cloneImage copies img into a new buffer, keeping gray images gray.
func cloneImage(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.Gray:
		dst := image.NewGray(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return dst
	case *image.Gray16:
		dst := image.NewGray16(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return dst
	}
	return imaging.Clone(img)
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// flattenOpaque composites translucent images over white, for formats that
// carry no alpha channel.
func flattenOpaque(img image.Image) image.Image {
	if isOpaque(img) {
		return cloneImage(img)
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// ColorMode describes the pixel layout of img.
func ColorMode(img image.Image) string {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return "gray"
	case *image.CMYK:
		return "cmyk"
	case *image.Paletted:
		return "paletted"
	case *image.YCbCr:
		return "rgb"
	}
	if isOpaque(img) {
		return "rgb"
	}
	return "rgba"
}
