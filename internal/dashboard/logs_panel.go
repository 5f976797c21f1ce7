package dashboard

import (
	"strings"

	"github.com/tOgg1/gdl-dash/internal/dashboard/styles"
	"github.com/tOgg1/gdl-dash/internal/logbuffer"
	"github.com/tOgg1/gdl-dash/internal/state"
)

const emptyLogsText = "No logs to display."

// chromeRows counts the header, two form rows, the toast row and the footer.
const chromeRows = 5

// restorePanel opens the panel with the layout saved for this terminal.
func (m *Model) restorePanel() {
	m.logsShown = true

	sess, err := m.sessions.Load()
	if err != nil {
		m.log.Debug().Err(err).Msg("load session layout")
	}
	m.panelHeight = sess.PanelHeight
	m.layout()
	if sess.ScrollOffset == nil {
		m.logs.GotoBottom()
		return
	}
	m.logs.SetYOffset(*sess.ScrollOffset)
}

func (m *Model) hideLogs() {
	m.saveSession()
	m.logsShown = false
	m.prefs.SetLogsShown(false)
	if m.focus == focusLogs {
		m.focus = focusForm
		m.input.Focus()
	}
}

func (m *Model) toggleLogs() {
	if m.logsShown {
		m.hideLogs()
		return
	}
	m.restorePanel()
	m.prefs.SetLogsShown(true)
}

// saveSession stores the panel layout. A panel pinned to the tail stores no
// offset so it keeps following on restore.
func (m *Model) saveSession() {
	sess := state.Session{PanelHeight: m.panelHeight}
	if !m.logs.AtBottom() {
		offset := m.logs.YOffset
		sess.ScrollOffset = &offset
	}
	if err := m.sessions.Save(sess); err != nil {
		m.log.Warn().Err(err).Msg("save session layout")
	}
}

func (m *Model) effectivePanelHeight() int {
	if m.panelHeight > 0 {
		return m.panelHeight
	}
	return m.defaultHeight
}

func (m *Model) maxPanelHeight() int {
	if m.height <= 0 {
		return 0
	}
	_, frame := styles.PanelFrame(styles.Lookup(m.theme))
	return maxInt(1, m.height-chromeRows-frame)
}

func (m *Model) resizePanel(delta int) {
	if !m.logsShown {
		return
	}
	next := m.effectivePanelHeight() + delta
	hi := m.maxPanelHeight()
	if hi <= 0 {
		hi = next
	}
	m.panelHeight = clampInt(next, styles.MinPanelHeight, maxInt(styles.MinPanelHeight, hi))
	wasBottom := m.logs.AtBottom()
	m.layout()
	if wasBottom {
		m.logs.GotoBottom()
	}
}

func (m *Model) layout() {
	hframe, _ := styles.PanelFrame(styles.Lookup(m.theme))
	if m.width > 0 {
		m.logs.Width = maxInt(1, m.width-hframe)
	}
	height := m.effectivePanelHeight()
	if hi := m.maxPanelHeight(); hi > 0 {
		height = minInt(height, hi)
	}
	m.logs.Height = maxInt(1, height)
	m.input.Width = maxInt(10, m.width-len(m.input.Prompt)-2)
}

func (m *Model) setLogContent(text string) {
	m.rawLogs = text
	m.logs.SetContent(m.styledLogs())
}

func (m *Model) styledLogs() string {
	palette := styles.Lookup(m.theme)
	body := strings.TrimRight(m.rawLogs, "\n")
	if body == "" {
		return palette.MutedStyle().Render(emptyLogsText)
	}
	lines := strings.Split(body, "\n")
	progress := palette.ProgressStyle()
	for i, line := range lines {
		if logbuffer.IsProgress(line) {
			lines[i] = progress.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderLogs() string {
	palette := styles.Lookup(m.theme)
	return styles.PanelStyle(palette, m.focus == focusLogs).Render(m.logs.View())
}
