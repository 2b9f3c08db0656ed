package ui

import "github.com/charmbracelet/lipgloss"

var (
	Mantle   = lipgloss.Color("#181825")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Red      = lipgloss.Color("#f38ba8")
	Peach    = lipgloss.Color("#fab387")
	Yellow   = lipgloss.Color("#f9e2af")

	appStyle = lipgloss.NewStyle().
			Foreground(Text).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Surface1).
			Padding(0, 1)

	activePaneStyle = paneStyle.BorderForeground(Lavender)

	titleStyle   = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(Subtext0)
	hotStyle     = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	formulaStyle = lipgloss.NewStyle().Foreground(Yellow).Italic(true)
	correctStyle = lipgloss.NewStyle().Foreground(Green).Bold(true)
	wrongStyle   = lipgloss.NewStyle().Foreground(Red).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(Red)

	barFullStyle  = lipgloss.NewStyle().Foreground(Green)
	barEmptyStyle = lipgloss.NewStyle().Foreground(Surface1)

	statusStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(Mantle).
			Padding(0, 1)
)
