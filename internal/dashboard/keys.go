package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "ctrl+t":
		m.toggleTheme()
		return nil
	case "ctrl+l":
		m.toggleLogs()
		return nil
	case "ctrl+f":
		m.cycleOption(1)
		return nil
	case "tab", "shift+tab":
		m.switchFocus()
		return nil
	}

	if m.focus == focusForm {
		return m.handleFormKey(msg)
	}
	return m.handleLogsKey(msg)
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		return m.submit()
	case "esc":
		if m.logsShown {
			m.switchFocus()
		}
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleLogsKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return m.quit()
	case "?":
		m.showHelp = !m.showHelp
		return nil
	case "t":
		m.toggleTheme()
		return nil
	case "f":
		m.cycleOption(1)
		return nil
	case "F":
		m.cycleOption(-1)
		return nil
	case "l":
		m.toggleLogs()
		return nil
	case "+", "=":
		m.resizePanel(2)
		return nil
	case "-", "_":
		m.resizePanel(-2)
		return nil
	case "r":
		return m.bootstrapCmd(true)
	case "c":
		return m.clearLogsCmd()
	case "g", "home":
		m.logs.GotoTop()
		return nil
	case "G", "end":
		m.logs.GotoBottom()
		return nil
	case "esc", "i":
		m.switchFocus()
		return nil
	}
	var cmd tea.Cmd
	m.logs, cmd = m.logs.Update(msg)
	return cmd
}

func (m *Model) switchFocus() {
	if m.focus == focusForm && m.logsShown {
		m.focus = focusLogs
		m.input.Blur()
		return
	}
	m.focus = focusForm
	m.input.Focus()
}

func (m *Model) quit() tea.Cmd {
	_ = m.Close()
	return tea.Quit
}
