// Package naming computes output paths for converted images.
package naming

import (
	"os"
	"path/filepath"
	"strings"

	"recast/internal/imgerr"
)

// Options describes one destination computation. Extension is the target
// extension without a leading dot.
type Options struct {
	Source          string
	Destination     string
	Append          string
	DoubleExtension bool
	Extension       string
}

// Resolve returns the destination path for opts. The only filesystem access
// is a stat of Destination to tell a directory from a file path.
func Resolve(opts Options) (string, error) {
	name := filepath.Base(opts.Source)
	if opts.Source == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", imgerr.Wrap(imgerr.CategoryInput, "resolve", opts.Source, imgerr.ErrFailedToResolveFilename)
	}

	ext := strings.TrimPrefix(opts.Extension, ".")
	if ext == "" {
		ext = strings.TrimPrefix(filepath.Ext(name), ".")
	}

	switch {
	case opts.Destination == "":
		return filepath.Join(filepath.Dir(opts.Source), fileName(name, ext, opts)), nil
	case IsDirTarget(opts.Destination):
		return filepath.Join(opts.Destination, fileName(name, ext, opts)), nil
	default:
		return opts.Destination, nil
	}
}

// IsDirTarget reports whether dest names a directory: an existing one, one
// spelled with a trailing separator, or a path with no extension.
func IsDirTarget(dest string) bool {
	if info, err := os.Stat(dest); err == nil {
		return info.IsDir()
	}
	if strings.HasSuffix(dest, string(filepath.Separator)) || strings.HasSuffix(dest, "/") {
		return true
	}
	return filepath.Ext(dest) == ""
}

// fileName builds stem+append+extensions for a source file name.
func fileName(name, ext string, opts Options) string {
	srcExt := filepath.Ext(name)
	stem := strings.TrimSuffix(name, srcExt)
	if stem == "" {
		// dotfiles such as ".png" keep their whole name as the stem
		stem, srcExt = name, ""
	}

	var b strings.Builder
	b.WriteString(stem)
	b.WriteString(opts.Append)
	if opts.DoubleExtension && srcExt != "" {
		b.WriteString(srcExt)
	}
	if ext != "" {
		b.WriteString(".")
		b.WriteString(ext)
	}
	return b.String()
}
