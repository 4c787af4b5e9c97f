package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Primary colors
	Primary   = lipgloss.Color("#00D4AA")
	Secondary = lipgloss.Color("#7C3AED")
	Accent    = lipgloss.Color("#F59E0B")

	// Status colors
	Success = lipgloss.Color("#10B981")
	Warning = lipgloss.Color("#FCD34D")
	Error   = lipgloss.Color("#EF4444")
	Info    = lipgloss.Color("#3B82F6")

	// Panel colors, an OLED is white-on-black
	PanelBackground = lipgloss.Color("#000000")
	PanelText       = lipgloss.Color("#E0F7FF")

	// UI colors
	Surface   = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
	Text      = lipgloss.Color("#F1F5F9")
	TextMuted = lipgloss.Color("#94A3B8")
)

// Panel styles
var (
	PanelStyle = lipgloss.NewStyle().
			Foreground(PanelText).
			Background(PanelBackground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	PanelTitleStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	PanelClockStyle = lipgloss.NewStyle().
			Foreground(TextMuted)

	PanelLineStyle = lipgloss.NewStyle().
			Foreground(PanelText)

	AlertTitleStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true).
			Blink(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(Accent)
)

// TitleStyle returns the header style for a screen title.
func TitleStyle(alert bool) lipgloss.Style {
	if alert {
		return AlertTitleStyle
	}
	return PanelTitleStyle
}
