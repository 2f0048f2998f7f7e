// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colors.
var (
	ColorPrimary    = lipgloss.Color("#7aa2f7")
	ColorSecondary  = lipgloss.Color("#7dcfff")
	ColorForeground = lipgloss.Color("#c0caf5")
	ColorMuted      = lipgloss.Color("#565f89")
	ColorSuccess    = lipgloss.Color("#9ece6a")
	ColorWarning    = lipgloss.Color("#e0af68")
	ColorError      = lipgloss.Color("#f7768e")
)

// CLI styles.
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorForeground).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	IDStyle = lipgloss.NewStyle().
		Foreground(ColorSecondary)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// statusStyles maps review states to their display style.
var statusStyles = map[string]lipgloss.Style{
	"draft":    WarningStyle,
	"approved": SuccessStyle,
	"rejected": ErrorStyle,
}

// StatusStyle returns the style for a review status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return MutedStyle
}

// ProgressBar renders a fixed-width textual progress bar.
func ProgressBar(percent float64, width int) string {
	if width < 1 {
		width = 20
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return SuccessStyle.Render(strings.Repeat("█", filled)) +
		MutedStyle.Render(strings.Repeat("░", width-filled))
}
