package format

import (
	"fmt"
	"image"
	"regexp"
	"strconv"
	"strings"

	"recast/internal/imgerr"
)

// Tag is the symbolic identifier of an image encoding.
type Tag string

const (
	JPEG Tag = "jpeg"
	PNG  Tag = "png"
	WebP Tag = "webp"
	BMP  Tag = "bmp"
)

// ExternalFormat returns the tag under which a codec supplied from outside
// this package is registered.
func ExternalFormat(name string) Tag {
	return Tag(strings.ToLower(strings.TrimPrefix(name, ".")))
}

// IsBuiltin reports whether t is one of the formats shipped with the registry.
func (t Tag) IsBuiltin() bool {
	switch t {
	case JPEG, PNG, WebP, BMP:
		return true
	}
	return false
}

func (t Tag) String() string { return string(t) }

// ImgSize always reflects the dimensions of the handle's current image.
type ImgSize struct {
	Width  int
	Height int
}

func (s ImgSize) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

func sizeOf(img image.Image) ImgSize {
	b := img.Bounds()
	return ImgSize{Width: b.Dx(), Height: b.Dy()}
}

// Rect is a crop region relative to the image origin.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) String() string { return fmt.Sprintf("%dx%d+%dx%d", r.X, r.Y, r.W, r.H) }

var rectPattern = regexp.MustCompile(`^(\d+)x(\d+)\+(\d+)x(\d+)$`)

// ParseRect parses the XxY+WxH form, e.g. "10x10+20x20".
func ParseRect(s string) (Rect, error) {
	m := rectPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Rect{}, fmt.Errorf("%w: trim %q must be XxY+WxH (e.g. 100x100+50x50)", imgerr.ErrInvalidParameter, s)
	}

	vals := make([]int, 4)
	for i := range vals {
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Rect{}, fmt.Errorf("%w: trim %q: %v", imgerr.ErrInvalidParameter, s, err)
		}
		vals[i] = v
	}
	return Rect{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, nil
}

// SaveStatus is what the filesystem reports around one save.
type SaveStatus struct {
	OutputPath string
	BeforeSize int64
	AfterSize  int64
}

// Ratio is AfterSize as a percentage of BeforeSize.
func (s SaveStatus) Ratio() float64 {
	if s.BeforeSize == 0 {
		return 0
	}
	return float64(s.AfterSize) / float64(s.BeforeSize) * 100
}
