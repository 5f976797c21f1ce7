// Package styles holds the dashboard color themes and panel styles.
package styles

import "github.com/charmbracelet/lipgloss"

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// StatusColors color the stream connection indicator.
type StatusColors struct {
	Connected    string
	Connecting   string
	Disconnected string
}

// ToastColors color transient notifications.
type ToastColors struct {
	Success string
	Error   string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header    string
	Footer    string
	Selected  string
	Progress  string
	Scrollbar string
}

// BorderColors defines border colors for pane state.
type BorderColors struct {
	ActivePane   string
	InactivePane string
	Divider      string
}

// Theme defines the dashboard style tokens.
type Theme struct {
	Name        string
	BorderStyle string // "rounded", "sharp", "double", "hidden"

	Base    BaseColors
	Status  StatusColors
	Toast   ToastColors
	Chrome  ChromeColors
	Borders BorderColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"dark":  DarkTheme,
	"light": LightTheme,
}

// Lookup returns the named theme, falling back to DarkTheme.
func Lookup(name string) Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return DarkTheme
}

func (t Theme) BaseStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Foreground))
}

func (t Theme) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

func (t Theme) AccentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent)).Bold(true)
}

// ProgressStyle highlights transfer-rate lines in the log panel.
func (t Theme) ProgressStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.Progress))
}
