package repl

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the REPL's lipgloss styles.
// They are bound to the output writer, so redirected output carries no escape codes.
type Styles struct {
	Title     lipgloss.Style
	Prompt    lipgloss.Style
	Assistant lipgloss.Style
	Notice    lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
}

// NewStyles creates styles rendered for w.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Prompt:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")),
		Assistant: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1")),
		Notice:    r.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		Error:     r.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		Muted:     r.NewStyle().Foreground(lipgloss.Color("#6C7086")),
	}
}
