package tui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles of the organizer screen.
type Styles struct {
	Title      lipgloss.Style
	Sidebar    lipgloss.Style
	Pane       lipgloss.Style
	Focused    lipgloss.Style
	Item       lipgloss.Style
	Cursor     lipgloss.Style
	Active     lipgloss.Style
	Muted      lipgloss.Style
	Dialog     lipgloss.Style
	Status     lipgloss.Style
	Confirm    lipgloss.Style
	Help       lipgloss.Style
	SearchIcon lipgloss.Style
}

// DefaultStyles returns the styles used by New.
func DefaultStyles() Styles {
	border := lipgloss.RoundedBorder()
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4f46e5")).
			Bold(true).
			MarginBottom(1),
		Sidebar: lipgloss.NewStyle().
			Border(border).
			BorderForeground(lipgloss.Color("#cbd5e1")).
			Padding(0, 1).
			Width(26),
		Pane: lipgloss.NewStyle().
			Border(border).
			BorderForeground(lipgloss.Color("#cbd5e1")).
			Padding(0, 1),
		Focused: lipgloss.NewStyle().
			Border(border).
			BorderForeground(lipgloss.Color("#4f46e5")).
			Padding(0, 1),
		Item: lipgloss.NewStyle(),
		Cursor: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4f46e5")).
			Bold(true),
		Active: lipgloss.NewStyle().
			Background(lipgloss.Color("#eef2ff")).
			Foreground(lipgloss.Color("#4f46e5")).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748b")),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#4f46e5")).
			Padding(1, 2).
			MarginTop(1),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#b45309")).
			Bold(true),
		Confirm: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ef4444")).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8")).
			Italic(true),
		SearchIcon: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748b")),
	}
}

// badge renders a category name in its own color.
func badge(name, color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("[" + name + "]")
}
