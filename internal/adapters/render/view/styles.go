package view

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	id        lipgloss.Style
	detail    lipgloss.Style
	faint     lipgloss.Style
	section   lipgloss.Style
	empty     lipgloss.Style
	pending   lipgloss.Style
	running   lipgloss.Style
	completed lipgloss.Style
	failed    lipgloss.Style
	link      lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		id:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		detail:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		faint:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		section:   lipgloss.NewStyle().MarginTop(1),
		empty:     lipgloss.NewStyle().Faint(true),
		pending:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		running:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		completed: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78")),
		failed:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		link:      lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("159")),
	}
}
