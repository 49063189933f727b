package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorInk       = lipgloss.Color("#E5E9F0")
	ColorDim       = lipgloss.Color("#7A8291")
	ColorAccent    = lipgloss.Color("#88C0D0")
	ColorAccentAlt = lipgloss.Color("#81A1C1")
	ColorSuccess   = lipgloss.Color("#A3BE8C")
	ColorWarn      = lipgloss.Color("#EBCB8B")
	ColorError     = lipgloss.Color("#BF616A")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle   = lipgloss.NewStyle().Foreground(ColorInk)
	valueStyle   = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
	barStyle     = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	dimStyle     = lipgloss.NewStyle().Foreground(ColorDim)
	promptStyle  = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)
	createdStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	skippedStyle = lipgloss.NewStyle().Foreground(ColorWarn)
	failedStyle  = lipgloss.NewStyle().Foreground(ColorError)
)
