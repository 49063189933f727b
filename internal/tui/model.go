package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	units "github.com/docker/go-units"

	"recast/internal/processor"
)

const recentLines = 5

type Model struct {
	updates <-chan processor.ProgressUpdate
	prompts <-chan PromptRequest
	cancel  context.CancelFunc

	started time.Time
	width   int

	total       int
	done        int
	created     int
	skipped     int
	failed      int
	bytesBefore int64
	bytesAfter  int64
	recent      []string

	pending     *PromptRequest
	interrupted bool
	quitting    bool
}

type doneMsg struct{}

type updateMsg processor.ProgressUpdate

type promptMsg PromptRequest

// NewModel renders progress from updates and answers overwrite prompts.
// ctrl+c calls cancel; the model quits once updates is closed.
func NewModel(updates <-chan processor.ProgressUpdate, prompts <-chan PromptRequest, cancel context.CancelFunc) Model {
	return Model{updates: updates, prompts: prompts, cancel: cancel, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(listenForUpdates(m.updates), listenForPrompts(m.prompts))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.total += msg.TotalDelta
		m.done += msg.DoneDelta
		m.created += msg.CreatedDelta
		m.skipped += msg.SkippedDelta
		m.failed += msg.FailedDelta
		m.bytesBefore += msg.BytesBeforeDelta
		m.bytesAfter += msg.BytesAfterDelta
		if msg.Line != "" {
			m.recent = append(m.recent, msg.Line)
			if len(m.recent) > recentLines {
				m.recent = m.recent[len(m.recent)-recentLines:]
			}
		}
		return m, listenForUpdates(m.updates)
	case promptMsg:
		req := PromptRequest(msg)
		m.pending = &req
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case doneMsg:
		if m.pending != nil {
			m.pending.Answer(false)
			m.pending = nil
		}
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.interrupted = true
		// With a cancel func the pending Confirm returns through ctx.Done, so
		// the job is recorded as interrupted rather than declined.
		if m.cancel != nil {
			m.cancel()
		} else if m.pending != nil {
			m.pending.Answer(false)
		}
		m.pending = nil
		return m, nil
	}
	if m.pending == nil {
		return m, nil
	}

	switch strings.ToLower(msg.String()) {
	case "y":
		m.pending.Answer(true)
	case "n", "esc", "enter":
		m.pending.Answer(false)
	default:
		return m, nil
	}
	m.pending = nil
	return m, listenForPrompts(m.prompts)
}

// Pending returns the path awaiting confirmation, if any.
func (m Model) Pending() (string, bool) {
	if m.pending == nil {
		return "", false
	}
	return m.pending.Path, true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.done) / float64(m.total)
		if ratio > 1 {
			ratio = 1
		}
	}

	bar := renderBar(barWidth, ratio)
	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render("recast"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.done, m.total)) +
			dimStyle.Render(fmt.Sprintf("  created:%d skipped:%d failed:%d", m.created, m.skipped, m.failed)),
		labelStyle.Render(fmt.Sprintf("Size: %s -> %s", units.HumanSize(float64(m.bytesBefore)), units.HumanSize(float64(m.bytesAfter)))),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(bar),
	}
	for _, line := range m.recent {
		lines = append(lines, dimStyle.Render(line))
	}
	if m.pending != nil {
		lines = append(lines, promptStyle.Render(fmt.Sprintf("%s already exists. Overwrite? [y/N]", m.pending.Path)))
	}
	if m.interrupted {
		lines = append(lines, promptStyle.Render("Interrupted: finishing files in progress..."))
	}

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func listenForPrompts(prompts <-chan PromptRequest) tea.Cmd {
	if prompts == nil {
		return nil
	}
	return func() tea.Msg {
		req, ok := <-prompts
		if !ok {
			return nil
		}
		return promptMsg(req)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
