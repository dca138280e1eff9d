// Package tui provides the terminal chat interface.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/samarth/internal/render"
)

// Styles holds every lipgloss style of the chat view, derived from a theme
type Styles struct {
	Theme render.TUITheme

	Header   lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Hint     lipgloss.Style

	MessagesArea    lipgloss.Style
	UserLabel       lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantLabel  lipgloss.Style
	AssistantBubble lipgloss.Style

	InputPanel lipgloss.Style
	InputLabel lipgloss.Style
	Loading    lipgloss.Style
	Sending    lipgloss.Style

	StatusBar  lipgloss.Style
	StatusKey  lipgloss.Style
	StatusDesc lipgloss.Style

	Error  lipgloss.Style
	Detail lipgloss.Style
	Notice lipgloss.Style

	Welcome      lipgloss.Style
	WelcomeTitle lipgloss.Style
	WelcomeIcon  lipgloss.Style
}

// Progress colors for the loading bar, paddy green to ripe wheat
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#2d6a4f"),
	lipgloss.Color("#40916c"),
	lipgloss.Color("#52b788"),
	lipgloss.Color("#95d5b2"),
	lipgloss.Color("#e9c46a"),
	lipgloss.Color("#f4a261"),
	lipgloss.Color("#e9c46a"),
	lipgloss.Color("#95d5b2"),
}

// NewStyles builds the chat styles for a theme
func NewStyles(theme render.TUITheme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 2),
		Title: lipgloss.NewStyle().
			Foreground(theme.Assistant).
			Bold(true),
		Subtitle: lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Italic(true),
		Hint: lipgloss.NewStyle().
			Foreground(theme.TextDim),

		MessagesArea: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		UserLabel: lipgloss.NewStyle().
			Foreground(theme.User).
			Bold(true).
			MarginLeft(1),
		UserBubble: lipgloss.NewStyle().
			Foreground(theme.Text).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(theme.User).
			PaddingLeft(2).
			MarginLeft(1),
		AssistantLabel: lipgloss.NewStyle().
			Foreground(theme.Assistant).
			Bold(true).
			MarginLeft(1),
		AssistantBubble: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(theme.Assistant).
			MarginLeft(1),

		InputPanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.User).
			Padding(0, 1),
		InputLabel: lipgloss.NewStyle().
			Foreground(theme.User).
			Bold(true),
		Loading: lipgloss.NewStyle().
			Foreground(theme.Accent),
		Sending: lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.TextDim),
		StatusKey: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),
		StatusDesc: lipgloss.NewStyle().
			Foreground(theme.TextDim),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error).
			Bold(true).
			PaddingLeft(2),
		Detail: lipgloss.NewStyle().
			Foreground(theme.TextDim).
			PaddingLeft(4),
		Notice: lipgloss.NewStyle().
			Foreground(theme.Warning).
			PaddingLeft(2),

		Welcome: lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Align(lipgloss.Center),
		WelcomeTitle: lipgloss.NewStyle().
			Foreground(theme.Assistant).
			Bold(true).
			Align(lipgloss.Center),
		WelcomeIcon: lipgloss.NewStyle().
			Foreground(theme.Warning).
			Align(lipgloss.Center),
	}
}
