package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"
)

// MinHistoryWidth is the minimum character width for the history pane.
const MinHistoryWidth = 24

var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}
	colorYellow = lipgloss.AdaptiveColor{Light: "3", Dark: "11"}
	colorRed    = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	colorGray   = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	colorAccent = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	nameStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(colorGray)
	errorStyle    = lipgloss.NewStyle().Foreground(colorRed)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
)

// presenceColor maps a presence to its badge color.
func presenceColor(p profile.Presence) lipgloss.AdaptiveColor {
	switch p {
	case profile.PresenceOnline:
		return colorGreen
	case profile.PresenceIdle:
		return colorYellow
	case profile.PresenceDND:
		return colorRed
	default:
		return colorGray
	}
}

// PresenceBadge returns a styled presence label like "● Online".
func PresenceBadge(p profile.Presence) string {
	return lipgloss.NewStyle().
		Foreground(presenceColor(p)).
		Render("● " + p.Label())
}

// FocusedBorder returns a lipgloss style with an accent-colored rounded border.
func FocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent)
}

// UnfocusedBorder returns a lipgloss style with a dim rounded border.
func UnfocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "240", Dark: "240"})
}

// PaneWidths calculates the profile and history pane widths from a total
// width. History gets 1/3 (minimum MinHistoryWidth), the profile the rest.
func PaneWidths(totalWidth int) (main, side int) {
	if totalWidth <= 0 {
		return 0, 0
	}
	side = totalWidth / 3
	if side < MinHistoryWidth {
		side = MinHistoryWidth
	}
	main = totalWidth - side
	if main < 0 {
		main = 0
	}
	return main, side
}
