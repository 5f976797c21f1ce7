package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/gdl-dash/internal/dashboard/styles"
	"github.com/tOgg1/gdl-dash/internal/stream"
)

func (m *Model) renderHeader() string {
	palette := styles.Lookup(m.theme)

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Foreground)).
		Background(lipgloss.Color(palette.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	left := "gdl-dash"
	center := m.serverURL
	right := connectionLabel(m.connState)
	line := joinHeader(left, center, right, maxInt(0, m.width-2))
	return style.Width(maxInt(0, m.width)).Render(line)
}

func (m *Model) renderFooter() string {
	palette := styles.Lookup(m.theme)

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Muted)).
		Background(lipgloss.Color(palette.Chrome.Footer)).
		Padding(0, 1)

	var base string
	if m.focus == focusForm {
		base = "enter submit  ctrl+f format  tab logs  ctrl+l show/hide logs  ctrl+t theme  ctrl+c quit"
	} else {
		base = "tab form  f format  l hide  +/- resize  r refresh  c clear  t theme  ? help  q quit"
	}
	if m.showHelp {
		base = base + "  (arrows/pgup/pgdn scroll, g/G top/bottom)"
	}
	return style.Width(maxInt(0, m.width)).Render(truncate(base, maxInt(0, m.width-2)))
}

func connectionLabel(s stream.State) string {
	switch s {
	case stream.Connected:
		return "● live"
	case stream.Connecting:
		return "◌ connecting"
	default:
		return "○ offline"
	}
}

func joinHeader(left, center, right string, width int) string {
	left = strings.TrimSpace(left)
	center = strings.TrimSpace(center)
	right = strings.TrimSpace(right)
	if width <= 0 {
		return left
	}

	space := width - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if space < 2 {
		line := left
		if right != "" {
			line = left + "  " + right
		}
		return truncate(line, width)
	}

	leftGap := space / 2
	rightGap := space - leftGap
	return left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:minInt(max, len(runes))])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
