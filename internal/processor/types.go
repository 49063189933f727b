package processor

import (
	"image"
	"log/slog"
	"time"

	"recast/internal/format"
	"recast/internal/policy"
)

// Outcome is the final state of one job.
type Outcome int

const (
	Success Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "created"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// ReasonInterrupted marks jobs that were never started because the run was
// cancelled.
const ReasonInterrupted = "interrupted"

// Ops is the requested operation set. Zero values mean "not requested".
type Ops struct {
	Convert   format.Tag
	Resize    int
	Trim      *format.Rect
	Grayscale bool
	// Quality requests the compress step; nil leaves the format default to Save.
	Quality *float64
	Delete  bool
	View    bool
}

// Empty reports whether no image operation was requested.
func (o Ops) Empty() bool {
	return o.Convert == "" && o.Resize == 0 && o.Trim == nil && !o.Grayscale && o.Quality == nil
}

// Naming carries the destination settings shared by every job of a run.
type Naming struct {
	Destination     string
	Append          string
	DoubleExtension bool
}

type Job struct {
	Index   int
	Path    string
	Display string
	Ops     Ops
	Naming  Naming
}

type Result struct {
	Index   int
	Path    string
	Display string
	Outcome Outcome
	Status  format.SaveStatus
	Reason  string
	Err     error
	Steps   []string
	Deleted bool
	Preview string
	Exif    format.ExifSummary
	Elapsed time.Duration
}

// Options configures a Run.
type Options struct {
	Workers int
	Policy  *policy.Engine
	// MaxInputSize rejects larger inputs before they are read; 0 disables it.
	MaxInputSize int64
	// Preview renders the final image for --view.
	Preview func(img image.Image) string
	Logger  *slog.Logger
}

// DefaultWorkers is the pool size when Options.Workers is unset.
const DefaultWorkers = 4

// Report aggregates a run. Results are in input order.
type Report struct {
	Results     []Result
	Created     int
	Skipped     int
	Failed      int
	BytesBefore int64
	BytesAfter  int64
}

// Ratio is the output size of created files as a percentage of their inputs.
func (r Report) Ratio() float64 {
	if r.BytesBefore == 0 {
		return 0
	}
	return float64(r.BytesAfter) / float64(r.BytesBefore) * 100
}

// OK is true when every job produced its output.
func (r Report) OK() bool {
	return r.Failed == 0 && r.Skipped == 0
}

func (r *Report) add(res Result) {
	switch res.Outcome {
	case Success:
		r.Created++
		r.BytesBefore += res.Status.BeforeSize
		r.BytesAfter += res.Status.AfterSize
	case Skipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

// ProgressUpdate is sent by the collector only, one per finished job plus an
// initial total.
type ProgressUpdate struct {
	TotalDelta       int
	DoneDelta        int
	CreatedDelta     int
	SkippedDelta     int
	FailedDelta      int
	BytesBeforeDelta int64
	BytesAfterDelta  int64
	Line             string
}
