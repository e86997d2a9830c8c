package resources

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	card       lipgloss.Style
	cardTitle  lipgloss.Style
	detail     lipgloss.Style
	meta       lipgloss.Style
	warning    lipgloss.Style
	empty      lipgloss.Style
	section    lipgloss.Style
	verified   lipgloss.Style
	pending    lipgloss.Style
	rejected   lipgloss.Style
	barBracket lipgloss.Style
	barFill    lipgloss.Style
	barEmpty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		card:       lipgloss.NewStyle().MarginTop(1),
		cardTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		meta:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		warning:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		empty:      lipgloss.NewStyle().Faint(true),
		section:    lipgloss.NewStyle().MarginTop(1),
		verified:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114")),
		pending:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("221")),
		rejected:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barFill:    lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
