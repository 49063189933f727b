package format

import (
	"bytes"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// ExifSummary is the subset of source EXIF recorded at open time. Encoders
// do not carry EXIF over, so the summary is what the report can say about
// metadata that the output no longer has.
type ExifSummary struct {
	Present     bool
	TagCount    int
	Make        string
	Model       string
	Taken       string
	Orientation int
	GPSCount    int
	SerialCount int
}

// HasGPS reports whether any GPS tag was present.
func (s ExifSummary) HasGPS() bool { return s.GPSCount > 0 }

// readExif is best effort: missing or malformed EXIF yields a zero summary.
func readExif(data []byte) (summary ExifSummary) {
	defer func() {
		if recover() != nil {
			summary = ExifSummary{}
		}
	}()

	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(bytes.NewReader(data), nil, true)
	if err != nil {
		return summary
	}

	summary.Present = len(tags) > 0
	summary.TagCount = len(tags)
	for _, tag := range tags {
		switch tag.TagName {
		case "Make":
			summary.Make = strings.TrimSpace(tag.Formatted)
		case "Model", "CameraModelName":
			if summary.Model == "" {
				summary.Model = strings.TrimSpace(tag.Formatted)
			}
		case "DateTimeOriginal":
			summary.Taken = tag.Formatted
		case "DateTimeDigitized", "DateTime":
			if summary.Taken == "" {
				summary.Taken = tag.Formatted
			}
		case "Orientation":
			if vals, ok := tag.Value.([]uint16); ok && len(vals) > 0 {
				summary.Orientation = int(vals[0])
			}
		}
		if strings.HasPrefix(tag.TagName, "GPS") || strings.Contains(tag.IfdPath, "GPS") {
			summary.GPSCount++
		}
		if strings.Contains(strings.ToLower(tag.TagName), "serial") {
			summary.SerialCount++
		}
	}

	return summary
}
