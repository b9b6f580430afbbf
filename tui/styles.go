package tui

import "github.com/charmbracelet/lipgloss"

// Tokyo Night palette
var (
	colorForeground = lipgloss.Color("#c0caf5")
	colorDim        = lipgloss.Color("#565f89")
	colorPrimary    = lipgloss.Color("#7aa2f7")
	colorSecondary  = lipgloss.Color("#bb9af7")
	colorSuccess    = lipgloss.Color("#9ece6a")
	colorWarning    = lipgloss.Color("#e0af68")
	colorError      = lipgloss.Color("#f7768e")
	colorBorder     = lipgloss.Color("#3b4261")
	colorSelection  = lipgloss.Color("#33467c")
)

const columnWidth = 24

type styles struct {
	title       lipgloss.Style
	subtle      lipgloss.Style
	column      lipgloss.Style
	columnFocus lipgloss.Style
	header      lipgloss.Style
	item        lipgloss.Style
	selected    lipgloss.Style
	carried     lipgloss.Style
	label       lipgloss.Style
	errorText   lipgloss.Style
	statusText  lipgloss.Style
	form        lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		subtle:      lipgloss.NewStyle().Foreground(colorDim),
		column:      lipgloss.NewStyle().Width(columnWidth).Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder),
		columnFocus: lipgloss.NewStyle().Width(columnWidth).Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(colorPrimary),
		header:      lipgloss.NewStyle().Bold(true).Foreground(colorSecondary),
		item:        lipgloss.NewStyle().Foreground(colorForeground),
		selected:    lipgloss.NewStyle().Foreground(colorForeground).Background(colorSelection),
		carried:     lipgloss.NewStyle().Foreground(colorWarning).Bold(true),
		label:       lipgloss.NewStyle().Foreground(colorDim).Width(12),
		errorText:   lipgloss.NewStyle().Foreground(colorError),
		statusText:  lipgloss.NewStyle().Foreground(colorSuccess),
		form:        lipgloss.NewStyle().Padding(1, 2).Border(lipgloss.RoundedBorder()).BorderForeground(colorPrimary),
	}
}

func priorityStyle(p string) lipgloss.Style {
	switch p {
	case "high":
		return lipgloss.NewStyle().Foreground(colorError)
	case "low":
		return lipgloss.NewStyle().Foreground(colorDim)
	default:
		return lipgloss.NewStyle().Foreground(colorWarning)
	}
}
