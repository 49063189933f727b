package tui

import (
	"fmt"
	"io"

	"recast/internal/processor"
)

// PrintProgress writes one line per finished job until updates is closed.
// It is the single writer to w while a run is in progress.
func PrintProgress(w io.Writer, updates <-chan processor.ProgressUpdate) {
	total, done := 0, 0
	for u := range updates {
		total += u.TotalDelta
		done += u.DoneDelta
		if u.Line == "" {
			continue
		}
		fmt.Fprintf(w, "[%d/%d] %s\n", done, total, u.Line)
	}
}
