package processor

import (
	"fmt"
	"strings"

	"recast/internal/format"
)

// metadataNote describes the source EXIF that the re-encoded output no
// longer carries. It returns "" when the source had none.
func metadataNote(s format.ExifSummary) string {
	if !s.Present {
		return ""
	}

	parts := []string{}
	if device := strings.TrimSpace(strings.Join([]string{s.Make, s.Model}, " ")); device != "" {
		if kind := inferDeviceType(strings.ToLower(device)); kind != "" {
			device += " (" + kind + ")"
		}
		parts = append(parts, "device "+device)
	}
	if s.Taken != "" {
		parts = append(parts, "captured "+replaceFirstN(s.Taken, ":", "-", 2))
	}
	if s.HasGPS() {
		parts = append(parts, fmt.Sprintf("%d GPS tags", s.GPSCount))
	}
	if s.SerialCount > 0 {
		parts = append(parts, "serial numbers")
	}
	if s.Orientation > 1 {
		parts = append(parts, fmt.Sprintf("orientation %d not applied", s.Orientation))
	}

	note := fmt.Sprintf("Metadata: %d EXIF tags not carried over", s.TagCount)
	if len(parts) > 0 {
		note += " (" + strings.Join(parts, "; ") + ")"
	}
	return note
}

func inferDeviceType(device string) string {
	switch {
	case strings.Contains(device, "iphone"),
		strings.Contains(device, "pixel"),
		strings.Contains(device, "galaxy"),
		strings.Contains(device, "android"):
		return "smartphone"
	case strings.Contains(device, "ipad"),
		strings.Contains(device, "tablet"):
		return "tablet"
	case strings.Contains(device, "gopro"):
		return "action camera"
	case strings.Contains(device, "dji"):
		return "drone"
	case strings.Contains(device, "canon"),
		strings.Contains(device, "nikon"),
		strings.Contains(device, "sony"),
		strings.Contains(device, "fujifilm"),
		strings.Contains(device, "panasonic"),
		strings.Contains(device, "olympus"),
		strings.Contains(device, "leica"):
		return "camera"
	default:
		return ""
	}
}

// replaceFirstN turns EXIF "2024:01:02 10:00:00" into "2024-01-02 10:00:00".
func replaceFirstN(s, old, repl string, n int) string {
	if n <= 0 || old == "" {
		return s
	}
	out := s
	for i := 0; i < n; i++ {
		idx := strings.Index(out, old)
		if idx < 0 {
			break
		}
		out = out[:idx] + repl + out[idx+len(old):]
	}
	return out
}
