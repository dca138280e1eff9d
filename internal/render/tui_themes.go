package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme is the color scheme of the chat interface
type TUITheme struct {
	Name        string
	Description string

	Surface lipgloss.Color
	Border  lipgloss.Color

	// User is the accent of the user's bubbles, Assistant the model's
	User      lipgloss.Color
	Assistant lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text    lipgloss.Color
	TextDim lipgloss.Color
}

// Built-in TUI themes
var (
	TokyoNightTheme = TUITheme{
		Name:        "tokyonight",
		Description: "Tokyo Night - dark theme with blue accents",

		Surface: lipgloss.Color("#24283b"),
		Border:  lipgloss.Color("#414868"),

		User:      lipgloss.Color("#7aa2f7"),
		Assistant: lipgloss.Color("#9ece6a"),
		Accent:    lipgloss.Color("#bb9af7"),
		Warning:   lipgloss.Color("#e0af68"),
		Error:     lipgloss.Color("#f7768e"),

		Text:    lipgloss.Color("#c0caf5"),
		TextDim: lipgloss.Color("#565f89"),
	}

	HarvestTheme = TUITheme{
		Name:        "harvest",
		Description: "Harvest - wheat and paddy tones on dark soil",

		Surface: lipgloss.Color("#2b2620"),
		Border:  lipgloss.Color("#5c5142"),

		User:      lipgloss.Color("#e5c07b"), // wheat
		Assistant: lipgloss.Color("#98c379"), // paddy
		Accent:    lipgloss.Color("#d19a66"),
		Warning:   lipgloss.Color("#f0c674"),
		Error:     lipgloss.Color("#e06c75"),

		Text:    lipgloss.Color("#ece3d0"),
		TextDim: lipgloss.Color("#8a7f6d"),
	}

	MonsoonTheme = TUITheme{
		Name:        "monsoon",
		Description: "Monsoon - slate and rain blues",

		Surface: lipgloss.Color("#1f2933"),
		Border:  lipgloss.Color("#3e4c59"),

		User:      lipgloss.Color("#7fb3d5"),
		Assistant: lipgloss.Color("#76d7c4"),
		Accent:    lipgloss.Color("#a9cce3"),
		Warning:   lipgloss.Color("#f7dc6f"),
		Error:     lipgloss.Color("#ec7063"),

		Text:    lipgloss.Color("#e4e7eb"),
		TextDim: lipgloss.Color("#7b8794"),
	}
)

// DefaultTUITheme is used when the configured theme is unknown
var DefaultTUITheme = TokyoNightTheme

// GetTUIThemeByName returns a TUI theme by its name, case-insensitively
func GetTUIThemeByName(name string) (TUITheme, bool) {
	for _, theme := range AvailableTUIThemes() {
		if strings.EqualFold(theme.Name, strings.TrimSpace(name)) {
			return theme, true
		}
	}
	return TUITheme{}, false
}

// ResolveTUITheme returns the named theme or the default one
func ResolveTUITheme(name string) TUITheme {
	if theme, ok := GetTUIThemeByName(name); ok {
		return theme
	}
	return DefaultTUITheme
}

// AvailableTUIThemes returns a list of all available TUI themes
func AvailableTUIThemes() []TUITheme {
	return []TUITheme{
		TokyoNightTheme,
		HarvestTheme,
		MonsoonTheme,
	}
}

// TUIThemeNames returns just the theme names for selection
func TUIThemeNames() []string {
	themes := AvailableTUIThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
