package prompt

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#8BC34A")
	muted   = lipgloss.Color("#7a8699")
	warning = lipgloss.Color("#FFC107")
	danger  = lipgloss.Color("#e53935")
)

// Styles are the console styles shared by prompts and command output.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Cursor  lipgloss.Style
	Box     lipgloss.Style
}

// DefaultStyles returns the casbot palette.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1),
		Label:   lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(muted),
		Success: lipgloss.NewStyle().Foreground(accent),
		Warning: lipgloss.NewStyle().Foreground(warning),
		Error:   lipgloss.NewStyle().Foreground(danger).Bold(true),
		Cursor:  lipgloss.NewStyle().Foreground(accent).Bold(true),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
	}
}
