package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss/v2"
)

// Grayscale palette with a few accents, readable on dark and light terminals.
var (
	granite    = lipgloss.Color("#5f5f5f")
	stone      = lipgloss.Color("#7a7a7a")
	silver     = lipgloss.Color("#c5c5c5")
	fern       = lipgloss.Color("#6a8e5f")
	terracotta = lipgloss.Color("#c95e52")
	sand       = lipgloss.Color("#d7c08d")
	sky        = lipgloss.Color("#669cd6")
)

type styles struct {
	Title   lipgloss.Style
	Section lipgloss.Style
	Text    lipgloss.Style
	Subtle  lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

func newStyles() styles {
	return styles{
		Title:   lipgloss.NewStyle().Foreground(sky).Bold(true),
		Section: lipgloss.NewStyle().Foreground(silver).Bold(true).Underline(true),
		Text:    lipgloss.NewStyle().Foreground(silver),
		Subtle:  lipgloss.NewStyle().Foreground(stone),
		Muted:   lipgloss.NewStyle().Foreground(granite),
		Success: lipgloss.NewStyle().Foreground(fern),
		Warning: lipgloss.NewStyle().Foreground(sand),
		Error:   lipgloss.NewStyle().Foreground(terracotta),
	}
}

// field renders a "Label: value" line.
func (s styles) field(label string, value any) string {
	return s.Subtle.Render(label+":") + " " + s.Text.Render(fmt.Sprint(value))
}
