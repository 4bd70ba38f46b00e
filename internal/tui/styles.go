package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Base styles for cortexvoice output
var (
	// Header style for titles and section headers
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// Success style for positive feedback
	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// Error style for error messages
	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	// Warning style for warnings
	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// Muted style for secondary text
	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Subtle style for hints and descriptions
	StyleSubtle = lipgloss.NewStyle().
			Foreground(ColorSubtle).
			Italic(true)

	// Highlight style for focused values
	StyleHighlight = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)
)

const logoASCII = `
                _                       _
  ___ ___  _ __| |_ _____  ____   _____(_) ___ ___
 / __/ _ \| '__| __/ _ \ \/ /\ \ / / _ \ |/ __/ _ \
| (_| (_) | |  | ||  __/>  <  \ V / (_) | | (_|  __/
 \___\___/|_|   \__\___/_/\_\  \_/ \___/|_|\___\___|`

// Logo returns the cortexvoice ASCII art
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}

// ColorEnabled reports whether the terminal supports colored output.
func ColorEnabled() bool {
	return termenv.DefaultOutput().Profile != termenv.Ascii
}

// plain strips styling when the terminal has no color support.
func render(style lipgloss.Style, s string) string {
	if !ColorEnabled() {
		return s
	}
	return style.Render(s)
}
