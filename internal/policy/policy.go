// Package policy decides what happens when an output path already exists.
package policy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"recast/internal/imgerr"
)

// Mode is fixed for the whole batch.
type Mode int

const (
	Ask Mode = iota
	AlwaysOverwrite
	NeverOverwrite
)

func (m Mode) String() string {
	switch m {
	case AlwaysOverwrite:
		return "always"
	case NeverOverwrite:
		return "never"
	default:
		return "ask"
	}
}

// ParseMode accepts the config spellings ask, always and never.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "ask":
		return Ask, nil
	case "always", "yes":
		return AlwaysOverwrite, nil
	case "never", "no":
		return NeverOverwrite, nil
	}
	return Ask, fmt.Errorf("%w: overwrite mode %q must be ask, always or never", imgerr.ErrInvalidParameter, s)
}

// Decision is the outcome for one destination.
type Decision int

const (
	Proceed Decision = iota
	Skip
)

const (
	ReasonExists   = "exists"
	ReasonDeclined = "declined"
)

// Prompter asks the user whether path may be overwritten. Implementations
// serialize their own I/O and may be called from many workers at once.
type Prompter interface {
	Confirm(ctx context.Context, path string) (bool, error)
}

// Engine applies one Mode to every job of a batch.
type Engine struct {
	mode     Mode
	prompter Prompter

	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

// New builds an engine from the --yes/--no flags. Setting both is a
// configuration error. Ask without a prompter falls back to NeverOverwrite.
func New(yes, no bool, prompter Prompter) (*Engine, error) {
	if yes && no {
		return nil, imgerr.Wrap(imgerr.CategoryConfig, "policy", "", imgerr.ErrConflictingPolicy)
	}
	mode := Ask
	switch {
	case yes:
		mode = AlwaysOverwrite
	case no:
		mode = NeverOverwrite
	}
	return NewWithMode(mode, prompter), nil
}

// NewWithMode builds an engine for an already-resolved mode.
func NewWithMode(mode Mode, prompter Prompter) *Engine {
	if mode == Ask && prompter == nil {
		mode = NeverOverwrite
	}
	return &Engine{
		mode:     mode,
		prompter: prompter,
		locks:    make(map[string]*pathLock),
	}
}

func (e *Engine) Mode() Mode { return e.mode }

// Decide checks path and applies the mode. The reason is empty when the
// decision is Proceed. Callers hold Lock(path) across Decide and the write.
func (e *Engine) Decide(ctx context.Context, path string) (Decision, string, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Proceed, "", nil
	}
	if err != nil {
		return Skip, "", imgerr.Wrap(imgerr.CategoryIO, "stat", path, err)
	}

	switch e.mode {
	case AlwaysOverwrite:
		return Proceed, "", nil
	case NeverOverwrite:
		return Skip, ReasonExists, nil
	}

	ok, err := e.prompter.Confirm(ctx, path)
	if err != nil {
		return Skip, "", err
	}
	if !ok {
		return Skip, ReasonDeclined, nil
	}
	return Proceed, "", nil
}

// Lock serializes jobs that resolve to the same destination. The returned
// func releases the lock and must be called exactly once.
func (e *Engine) Lock(path string) func() {
	e.mu.Lock()
	l, ok := e.locks[path]
	if !ok {
		l = &pathLock{}
		e.locks[path] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, path)
		}
		e.mu.Unlock()
	}
}
