package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// PromptRequest asks the model to confirm an overwrite. The answer is sent
// on reply, which has room for exactly one value.
type PromptRequest struct {
	Path  string
	reply chan bool
}

// Answer replies to the request; the model calls it once.
func (r PromptRequest) Answer(ok bool) {
	r.reply <- ok
}

// Prompter hands confirmations to the bubbletea model, which owns the
// terminal. Workers block on their own reply channel only.
type Prompter struct {
	requests chan PromptRequest
}

func NewPrompter() *Prompter {
	return &Prompter{requests: make(chan PromptRequest)}
}

// Requests is read by the model.
func (p *Prompter) Requests() <-chan PromptRequest {
	return p.requests
}

func (p *Prompter) Confirm(ctx context.Context, path string) (bool, error) {
	req := PromptRequest{Path: path, reply: make(chan bool, 1)}

	select {
	case p.requests <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case ok := <-req.reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// LinePrompter asks on a plain terminal, one question at a time. Input is
// read by a background goroutine so a pending question can be abandoned
// when the run is interrupted.
type LinePrompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer

	once  sync.Once
	lines chan string
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out, lines: make(chan string)}
}

// readLines feeds lines until the input fails; lines is closed after that.
func (p *LinePrompter) readLines() {
	defer close(p.lines)
	for {
		line, err := p.in.ReadString('\n')
		if line != "" {
			p.lines <- line
		}
		if err != nil {
			return
		}
	}
}

// Writer returns out guarded by the prompt lock, so progress lines written
// through it never land in the middle of a question.
func (p *LinePrompter) Writer() io.Writer {
	return lockedWriter{p}
}

type lockedWriter struct{ p *LinePrompter }

func (w lockedWriter) Write(b []byte) (int, error) {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	return w.p.out.Write(b)
}

// Confirm treats anything but y/yes, including EOF, as no. A cancelled ctx
// abandons the question and returns ctx.Err().
func (p *LinePrompter) Confirm(ctx context.Context, path string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.once.Do(func() { go p.readLines() })

	fmt.Fprintf(p.out, "%s already exists. Overwrite? [y/N] ", path)

	var line string
	select {
	case l, ok := <-p.lines:
		if !ok {
			fmt.Fprintln(p.out)
			return false, nil
		}
		line = l
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return false, ctx.Err()
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
