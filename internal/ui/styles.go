// Package ui provides the terminal styles of the command line output.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Catppuccin Mocha inspired).
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"} // Green
	ColorWarning = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	ColorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"} // Red
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
)

// Styles contains the styles used by command output.
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		Header: lipgloss.NewStyle().
			Bold(true).
			Underline(true),

		Muted: lipgloss.NewStyle().
			Foreground(ColorMuted),

		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),

		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError),
	}
}

// Plain returns styles that render text unchanged, for output that is not a
// terminal.
func Plain() Styles {
	s := lipgloss.NewStyle()
	return Styles{
		Title:   s,
		Header:  s,
		Muted:   s,
		Success: s,
		Warning: s,
		Error:   s,
	}
}

// Status renders a boolean as a colored yes or no.
func (s Styles) Status(ok bool) string {
	if ok {
		return s.Success.Render("yes")
	}
	return s.Muted.Render("no")
}
