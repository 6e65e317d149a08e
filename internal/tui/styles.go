package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the monitor's lipgloss styles.
type Theme struct {
	Title     lipgloss.Style
	Online    lipgloss.Style
	Offline   lipgloss.Style
	Listening lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Section   lipgloss.Style
	Box       lipgloss.Style
}

// DefaultTheme uses ANSI 256 colors.
var DefaultTheme = Theme{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
	Online:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	Offline:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	Listening: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	Section:   lipgloss.NewStyle().Bold(true).Underline(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1),
}
