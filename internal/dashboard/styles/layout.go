package styles

import "github.com/charmbracelet/lipgloss"

const (
	// LayoutInnerPadding is the horizontal panel content padding.
	LayoutInnerPadding = 1

	// MinPanelHeight is the smallest log panel, borders included.
	MinPanelHeight = 3
)

// PanelStyle returns a focused/unfocused border style for panes.
func PanelStyle(theme Theme, focused bool) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(panelBorderStyle(theme), true).
		BorderForeground(lipgloss.Color(panelBorderColor(theme, focused))).
		Padding(0, LayoutInnerPadding)
}

// DividerStyle returns the divider style between sections.
func DividerStyle(theme Theme) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Borders.Divider))
}

// PanelFrame reports the horizontal and vertical cells PanelStyle adds
// around its content.
func PanelFrame(theme Theme) (int, int) {
	s := PanelStyle(theme, false)
	return s.GetHorizontalFrameSize(), s.GetVerticalFrameSize()
}

func panelBorderColor(theme Theme, focused bool) string {
	if focused {
		return theme.Borders.ActivePane
	}
	return theme.Borders.InactivePane
}

func panelBorderStyle(theme Theme) lipgloss.Border {
	switch theme.BorderStyle {
	case "double":
		return lipgloss.DoubleBorder()
	case "sharp":
		return lipgloss.NormalBorder()
	case "hidden":
		return lipgloss.HiddenBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}
