package format

import (
	"fmt"
	"image/png"
	"math"

	"recast/internal/imgerr"
)

const (
	// DefaultLossyQuality is used by JPEG and WebP when no quality is requested.
	DefaultLossyQuality = 75

	// DefaultPNGLevel is the (68,85] bucket.
	DefaultPNGLevel = 5
)

// Level is a format-specific encoding parameter resolved from a quality
// percentage. The zero value means the format has no such parameter.
type Level struct {
	Value      float64
	Applicable bool
}

// NotApplicable is returned for lossless formats that ignore quality.
var NotApplicable = Level{}

func (l Level) String() string {
	if !l.Applicable {
		return "n/a"
	}
	return fmt.Sprintf("%g", l.Value)
}

// ValidateQuality accepts values in (0,100].
func ValidateQuality(q float64) error {
	if math.IsNaN(q) || q <= 0 || q > 100 {
		return fmt.Errorf("%w: quality %g must be in (0,100]", imgerr.ErrInvalidParameter, q)
	}
	return nil
}

func lossyLevel(q *float64) Level {
	if q == nil {
		return Level{Value: DefaultLossyQuality, Applicable: true}
	}
	return Level{Value: *q, Applicable: true}
}

var pngBounds = [...]float64{17, 34, 51, 68, 85}

// PNGBucket maps a quality to one of six compression buckets. Each bucket
// is low-exclusive and high-inclusive, so 17 lands in 1 and 17.1 in 2.
func PNGBucket(q float64) int {
	for i, upper := range pngBounds {
		if q <= upper {
			return i + 1
		}
	}
	return len(pngBounds) + 1
}

func pngLevel(q *float64) Level {
	if q == nil {
		return Level{Value: DefaultPNGLevel, Applicable: true}
	}
	return Level{Value: float64(PNGBucket(*q)), Applicable: true}
}

func pngCompression(l Level) png.CompressionLevel {
	if !l.Applicable {
		return png.DefaultCompression
	}
	switch int(l.Value) {
	case 1, 2:
		return png.BestSpeed
	case 3, 4:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

func lossyQuality(l Level) int {
	q := DefaultLossyQuality
	if l.Applicable {
		q = int(math.Round(l.Value))
	}
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}

// MapQuality resolves q for the format registered under name. A nil q
// selects the format default.
func MapQuality(reg *Registry, name string, q *float64) (Level, error) {
	c, err := reg.Lookup(name)
	if err != nil {
		return NotApplicable, err
	}
	if q != nil {
		if err := ValidateQuality(*q); err != nil {
			return NotApplicable, err
		}
	}
	return c.Level(q), nil
}
