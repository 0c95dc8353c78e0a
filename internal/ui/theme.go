package ui

import "github.com/charmbracelet/lipgloss"

// Styles used by the progress view.
type Styles struct {
	Spinner lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Danger  lipgloss.Style
}

// DefaultStyles returns the progress palette.
func DefaultStyles() Styles {
	return Styles{
		Spinner: lipgloss.NewStyle().Foreground(lipgloss.Color("#bd93f9")),
		Label:   lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#50fa7b")).Bold(true),
		Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555")).Bold(true),
	}
}
