package chat

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	user    lipgloss.Style
	bot     lipgloss.Style
	body    lipgloss.Style
	errBody lipgloss.Style
	pending lipgloss.Style
	section lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		user:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		bot:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114")),
		body:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2),
		errBody: lipgloss.NewStyle().Foreground(lipgloss.Color("203")).PaddingLeft(2),
		pending: lipgloss.NewStyle().Faint(true).Italic(true),
		section: lipgloss.NewStyle().MarginTop(1),
	}
}
