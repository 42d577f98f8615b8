// Package tui implements the terminal chat interface.
package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the TUI color palette.
type Theme struct {
	text         lipgloss.Color
	textMuted    lipgloss.Color
	primary      lipgloss.Color
	warning      lipgloss.Color
	error        lipgloss.Color
	border       lipgloss.Color
	borderActive lipgloss.Color
}

// Dark theme, matches the onboarding forms.
func getTheme() Theme {
	return Theme{
		text:         lipgloss.Color("#e0e0e0"),
		textMuted:    lipgloss.Color("#666666"),
		primary:      lipgloss.Color("#f97316"),
		warning:      lipgloss.Color("#eab308"),
		error:        lipgloss.Color("#ef4444"),
		border:       lipgloss.Color("#333333"),
		borderActive: lipgloss.Color("#f97316"),
	}
}
