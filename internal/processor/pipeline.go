package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	units "github.com/docker/go-units"

	"recast/internal/format"
	"recast/internal/imgerr"
	"recast/internal/naming"
	"recast/internal/policy"
)

// pipeline runs the fixed operation order on one job:
// convert, resize, trim, grayscale, compress, save.
type pipeline struct {
	reg  *format.Registry
	opts Options
}

func (p *pipeline) run(ctx context.Context, job Job) (res Result) {
	start := time.Now()
	res = Result{Index: job.Index, Path: job.Path, Display: job.Display}
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = Failed
			res.Err = imgerr.Wrap(imgerr.CategoryIO, "process", job.Path, fmt.Errorf("panic: %v", r))
		}
		res.Elapsed = time.Since(start)
	}()

	if err := p.process(ctx, job, &res); err != nil {
		if errors.Is(err, context.Canceled) {
			res.Outcome = Skipped
			res.Reason = ReasonInterrupted
			return res
		}
		res.Outcome = Failed
		res.Err = err
	}
	return res
}

func (p *pipeline) process(ctx context.Context, job Job, res *Result) error {
	info, err := os.Stat(job.Path)
	if err != nil {
		return imgerr.Wrap(imgerr.CategoryIO, "stat", job.Path, err)
	}
	if !info.Mode().IsRegular() {
		return imgerr.Wrap(imgerr.CategoryInput, "open", job.Path,
			fmt.Errorf("%w: not a regular file", imgerr.ErrInvalidParameter))
	}
	if limit := p.opts.MaxInputSize; limit > 0 && info.Size() > limit {
		return imgerr.Wrap(imgerr.CategoryInput, "open", job.Path,
			fmt.Errorf("%w: %s exceeds the %s input limit", imgerr.ErrInvalidParameter,
				units.HumanSize(float64(info.Size())), units.HumanSize(float64(limit))))
	}

	data, err := os.ReadFile(job.Path)
	if err != nil {
		return imgerr.Wrap(imgerr.CategoryIO, "read", job.Path, err)
	}
	h, err := format.Decode(p.reg, job.Path, data, info)
	if err != nil {
		return err
	}
	res.Exif = h.Exif()
	srcTag := h.Tag()
	ops := job.Ops

	if ops.Convert != "" {
		if err := h.Convert(ops.Convert); err != nil {
			return err
		}
		res.Steps = append(res.Steps, fmt.Sprintf("Convert: %s -> %s", srcTag, h.Tag()))
	}
	if ops.Resize != 0 {
		before := h.Size()
		after, err := h.Resize(ops.Resize)
		if err != nil {
			return err
		}
		res.Steps = append(res.Steps, fmt.Sprintf("Resize: %s -> %s", before, after))
	}
	if ops.Trim != nil {
		before := h.Size()
		after, err := h.Trim(*ops.Trim)
		if err != nil {
			return err
		}
		res.Steps = append(res.Steps, fmt.Sprintf("Trim: %s -> %s (%s)", before, after, *ops.Trim))
	}
	if ops.Grayscale {
		before := h.ColorMode()
		h.Grayscale()
		res.Steps = append(res.Steps, fmt.Sprintf("Grayscale: %s -> %s", before, h.ColorMode()))
	}
	if ops.Quality != nil {
		if err := h.Compress(ops.Quality); err != nil {
			return err
		}
		res.Steps = append(res.Steps, fmt.Sprintf("Compress: quality %g, level %s", *ops.Quality, h.Level()))
	}

	ext := ""
	if h.Tag() != srcTag {
		ext = h.Codec().Extensions()[0]
	}
	dest, err := naming.Resolve(naming.Options{
		Source:          job.Path,
		Destination:     job.Naming.Destination,
		Append:          job.Naming.Append,
		DoubleExtension: job.Naming.DoubleExtension,
		Extension:       ext,
	})
	if err != nil {
		return err
	}

	saved, err := p.save(ctx, h, dest, res)
	if err != nil || !saved {
		return err
	}

	if ops.Delete && !samePath(job.Path, res.Status.OutputPath) {
		if err := os.Remove(job.Path); err != nil {
			return imgerr.Wrap(imgerr.CategoryIO, "delete", job.Path, err)
		}
		res.Deleted = true
		res.Steps = append(res.Steps, fmt.Sprintf("Delete: %s", job.Path))
	}
	if ops.View && p.opts.Preview != nil {
		res.Preview = p.opts.Preview(h.Image())
	}
	return nil
}

// save holds the destination lock across the collision check and the write.
// It reports false when the policy skipped the job.
func (p *pipeline) save(ctx context.Context, h *format.Handle, dest string, res *Result) (bool, error) {
	unlock := p.opts.Policy.Lock(dest)
	defer unlock()

	decision, reason, err := p.opts.Policy.Decide(ctx, dest)
	if err != nil {
		return false, err
	}
	if decision == policy.Skip {
		res.Outcome = Skipped
		res.Reason = reason
		res.Status = format.SaveStatus{OutputPath: dest, BeforeSize: h.SourceSize()}
		return false, nil
	}

	status, err := h.Save(dest)
	if err != nil {
		return false, err
	}
	res.Outcome = Success
	res.Status = status
	res.Steps = append(res.Steps, fmt.Sprintf("Save: %s (%s -> %s)", status.OutputPath,
		units.HumanSize(float64(status.BeforeSize)), units.HumanSize(float64(status.AfterSize))))
	if note := metadataNote(h.Exif()); note != "" {
		res.Steps = append(res.Steps, note)
	}
	return true, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
