package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the TUI.
type Theme struct {
	Text    lipgloss.Color
	Dim     lipgloss.Color
	Accent  lipgloss.Color
	Border  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme is a dark palette tuned for long review sessions.
var DefaultTheme = Theme{
	Text:    lipgloss.Color("#c0caf5"),
	Dim:     lipgloss.Color("#565f89"),
	Accent:  lipgloss.Color("#7aa2f7"),
	Border:  lipgloss.Color("#414868"),
	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
}

// Styles provides pre-configured lipgloss styles using the theme.
type Styles struct {
	Base     lipgloss.Style
	Dim      lipgloss.Style
	Title    lipgloss.Style
	Selected lipgloss.Style
	Panel    lipgloss.Style
	Footer   lipgloss.Style

	Critical lipgloss.Style
	High     lipgloss.Style
	Medium   lipgloss.Style
	Low      lipgloss.Style
}

// NewStyles creates a Styles instance from a Theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Base: lipgloss.NewStyle().Foreground(t.Text),
		Dim:  lipgloss.NewStyle().Foreground(t.Dim),
		Title: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().Foreground(t.Dim),

		Critical: lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		High:     lipgloss.NewStyle().Foreground(t.Error),
		Medium:   lipgloss.NewStyle().Foreground(t.Warning),
		Low:      lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// DefaultStyles returns styles using the default theme.
var DefaultStyles = NewStyles(DefaultTheme)
