// Package imgerr defines the error taxonomy shared by the format, naming,
// policy and processor packages.
package imgerr

import (
	"errors"
	"fmt"
)

// Category classifies errors for reporting.
type Category string

const (
	CategoryDecode Category = "decode"
	CategoryEncode Category = "encode"
	CategoryInput  Category = "input"
	CategoryIO     Category = "io"
	CategoryConfig Category = "config"
)

// Error carries the failing operation and the input path it concerns.
type Error struct {
	Category Category
	Op       string
	Path     string
	Err      error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns nil when err is nil. An err that already names a path is
// returned unchanged.
func Wrap(category Category, op, path string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) && existing.Path != "" {
		return err
	}
	return &Error{Category: category, Op: op, Path: path, Err: err}
}

// CategoryOf reports the category of err, or "" when it carries none.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}

var (
	ErrUnsupportedFormat       = errors.New("unsupported image format")
	ErrUnsupportedConversion   = errors.New("unsupported conversion")
	ErrDecode                  = errors.New("decode failed")
	ErrEncode                  = errors.New("encode failed")
	ErrInvalidParameter        = errors.New("invalid parameter")
	ErrOutOfBounds             = errors.New("out of bounds")
	ErrFailedToResolveFilename = errors.New("failed to resolve filename")
	ErrConflictingPolicy       = errors.New("--yes and --no cannot be used together")
)
