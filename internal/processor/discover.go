package processor

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"recast/internal/format"
	"recast/pkg/imgutil"
)

// DiscoverOptions controls how input arguments are expanded.
type DiscoverOptions struct {
	Recursive bool
	// Exclude is skipped while walking, typically the output directory.
	Exclude string
}

// Discover expands paths, directories and glob patterns into a file list.
// Directory and glob matches are filtered to supported extensions, plus
// extensionless files found in directories that sniff as images. Files named
// explicitly are kept so unsupported input shows up as a failure.
// Patterns that match nothing are collected into the returned error.
func Discover(reg *format.Registry, patterns []string, opts DiscoverOptions) ([]string, error) {
	var (
		files  []string
		seen   = make(map[string]struct{})
		errs   *multierror.Error
		absOut string
	)
	if opts.Exclude != "" {
		if abs, err := filepath.Abs(opts.Exclude); err == nil {
			absOut = abs
		}
	}

	add := func(path string) {
		key := filepath.Clean(path)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		files = append(files, key)
	}

	for _, pattern := range patterns {
		info, err := os.Stat(pattern)
		switch {
		case err == nil && info.IsDir():
			found, err := listDir(reg, pattern, opts.Recursive, absOut)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			for _, f := range found {
				add(f)
			}
		case err == nil:
			add(pattern)
		default:
			matches, globErr := filepath.Glob(pattern)
			if globErr != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", pattern, globErr))
				continue
			}
			n := 0
			for _, m := range matches {
				if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() && reg.Supports(m) {
					add(m)
					n++
				}
			}
			if n == 0 {
				errs = multierror.Append(errs, fmt.Errorf("%s: no matching image files", pattern))
			}
		}
	}

	return files, errs.ErrorOrNil()
}

func listDir(reg *format.Registry, root string, recursive bool, exclude string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !recursive {
				return fs.SkipDir
			}
			if exclude != "" {
				if abs, err := filepath.Abs(path); err == nil && isWithin(abs, exclude) {
					return fs.SkipDir
				}
			}
			return nil
		}
		if d.Type().IsRegular() && (reg.Supports(path) || sniffsAsImage(path)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// sniffsAsImage picks up extensionless files whose header is a known format.
func sniffsAsImage(path string) bool {
	if filepath.Ext(path) != "" {
		return false
	}
	kind, err := imgutil.SniffFile(path)
	return err == nil && kind != imgutil.KindUnknown
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
