// Package logging builds the slog logger for a batch run. Plain runs log to
// stderr; runs under the terminal UI log to a file or nowhere.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// New returns a logger writing cfg.Format records at cfg.Level or above to w.
func New(cfg *Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level.slogLevel()}
	if cfg.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Open returns a logger for cfg. When cfg.File is set the log is appended
// to that file, otherwise fallback is used. A nil fallback discards output.
// The returned close func is never nil.
func Open(cfg *Config, fallback io.Writer) (*slog.Logger, func() error, error) {
	if cfg.File == "" {
		if fallback == nil {
			fallback = io.Discard
		}
		return New(cfg, fallback), func() error { return nil }, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(cfg, f), f.Close, nil
}

// Level is the minimum severity written, as named in recast.toml or
// RECAST_LOG_LEVEL.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var slogLevels = map[Level]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

func (l Level) Validate() error {
	if _, ok := slogLevels[l]; !ok {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", l)
	}
	return nil
}

// slogLevel falls back to info for names Validate would reject.
func (l Level) slogLevel() slog.Level {
	if lvl, ok := slogLevels[l]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// Format selects slog's text or JSON handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func (f Format) Validate() error {
	switch f {
	case FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", f)
	}
}
