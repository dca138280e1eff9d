package render

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

//go:embed themes/samarth.json
var samarthTheme []byte

// Markdown styles. ThemeSamarth is embedded, the rest ship with glamour.
const (
	ThemeSamarth    = "samarth"
	ThemeDark       = "dark"
	ThemeLight      = "light"
	ThemeTokyoNight = "tokyo-night"
	ThemeDracula    = "dracula"
	ThemeNoTTY      = "notty"
	ThemeASCII      = "ascii"
)

// GetBuiltinTheme returns the JSON of an embedded theme.
// Returns nil and false for glamour styles and style file paths.
func GetBuiltinTheme(name string) ([]byte, bool) {
	if name == ThemeSamarth {
		return samarthTheme, true
	}
	return nil, false
}

// styleOption loads an embedded theme, a glamour style or a style file
func styleOption(style string) glamour.TermRendererOption {
	if theme, ok := GetBuiltinTheme(style); ok {
		return glamour.WithStylesFromJSONBytes(theme)
	}
	return glamour.WithStylePath(style)
}

// ValidateStyle accepts builtin style names and existing JSON style files.
func ValidateStyle(style string) error {
	if IsBuiltinStyle(style) {
		return nil
	}
	if info, err := os.Stat(style); err == nil && !info.IsDir() {
		return nil
	}
	return fmt.Errorf("unknown markdown style %q (use %s or a JSON style file)",
		style, strings.Join(ThemeNames(), ", "))
}

// IsBuiltinStyle returns true if the style needs no file on disk
func IsBuiltinStyle(style string) bool {
	switch style {
	case ThemeSamarth, ThemeDark, ThemeLight, ThemeTokyoNight, ThemeDracula, ThemeNoTTY, ThemeASCII:
		return true
	default:
		return false
	}
}

// ThemeInfo contains information about a theme for display purposes.
type ThemeInfo struct {
	Name        string
	Description string
}

// AvailableThemes lists the markdown styles accepted by markdown.style
func AvailableThemes() []ThemeInfo {
	return []ThemeInfo{
		{Name: ThemeSamarth, Description: "Harvest palette with ruled section headings (default)"},
		{Name: ThemeDark, Description: "Glamour dark theme"},
		{Name: ThemeLight, Description: "Light theme for bright terminals"},
		{Name: ThemeTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: ThemeDracula, Description: "Dracula color scheme"},
		{Name: ThemeNoTTY, Description: "Plain text (no styling)"},
		{Name: ThemeASCII, Description: "ASCII-only output"},
	}
}

// ThemeNames returns just the theme names for selection.
func ThemeNames() []string {
	themes := AvailableThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
