// Package dashboard is the gdl-dash terminal UI: a submit form, toast
// notifications and the live log panel.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/tOgg1/gdl-dash/internal/dashboard/styles"
	"github.com/tOgg1/gdl-dash/internal/gallerydl"
	"github.com/tOgg1/gdl-dash/internal/logging"
	"github.com/tOgg1/gdl-dash/internal/state"
	"github.com/tOgg1/gdl-dash/internal/stream"
)

const (
	defaultPanelHeight    = 12
	defaultRequestTimeout = 15 * time.Second
	toastDuration         = 3 * time.Second

	SuccessToast = "Success! Added one item to the download queue."
)

// Submitter posts download requests.
type Submitter interface {
	Submit(ctx context.Context, target string, opt gallerydl.VideoOption) (gallerydl.SubmitResponse, error)
}

// LogSession is the live log source backing the panel.
type LogSession interface {
	Bootstrap(ctx context.Context) error
	Refresh(ctx context.Context) error
	EnsureConnected() error
	ClearLogs(ctx context.Context) error
	Close()
}

type Config struct {
	ServerURL string
	Client    Submitter
	Session   LogSession
	// Feed must be the Surface and state observer the Session was built with.
	Feed     *Feed
	Prefs    *state.Manager
	Sessions *state.SessionStore

	PanelHeight    int
	RequestTimeout time.Duration
	Logger         *zerolog.Logger
}

type focusArea int

const (
	focusForm focusArea = iota
	focusLogs
)

type toast struct {
	id      int
	text    string
	isError bool
}

type Model struct {
	serverURL string
	client    Submitter
	session   LogSession
	feed      *Feed
	prefs     *state.Manager
	sessions  *state.SessionStore
	timeout   time.Duration
	log       zerolog.Logger

	theme  string
	option gallerydl.VideoOption
	input  textinput.Model

	logs          viewport.Model
	rawLogs       string
	logsShown     bool
	panelHeight   int // 0 means defaultHeight
	defaultHeight int

	focus      focusArea
	connState  stream.State
	toast      *toast
	toastSeq   int
	submitting bool

	width    int
	height   int
	showHelp bool
	closed   bool
}

type submitResultMsg struct {
	url  string
	resp gallerydl.SubmitResponse
	err  error
}

type clearResultMsg struct {
	err error
}

type bootstrapResultMsg struct {
	err error
}

type toastExpiredMsg struct {
	id int
}

func NewModel(cfg Config) (*Model, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	input := textinput.New()
	input.Placeholder = "https://..."
	input.Prompt = "URL: "
	input.CharLimit = 2048
	input.Focus()

	m := &Model{
		serverURL:     cfg.ServerURL,
		client:        cfg.Client,
		session:       cfg.Session,
		feed:          cfg.Feed,
		prefs:         cfg.Prefs,
		sessions:      cfg.Sessions,
		timeout:       cfg.RequestTimeout,
		input:         input,
		logs:          viewport.New(0, cfg.PanelHeight),
		defaultHeight: cfg.PanelHeight,
		focus:         focusForm,
		connState:     stream.Disconnected,
	}
	if cfg.Logger != nil {
		m.log = *cfg.Logger
	} else {
		m.log = logging.Component("dashboard")
	}

	prefs := m.prefs.Snapshot()
	m.theme = prefs.Theme
	m.option = prefs.SelectedOption
	m.setLogContent("")
	if prefs.ShowLogs() {
		m.restorePanel()
	}
	return m, nil
}

func (c Config) normalize() (Config, error) {
	c.ServerURL = strings.TrimSpace(c.ServerURL)
	if c.Client == nil {
		return Config{}, fmt.Errorf("dashboard: client is required")
	}
	if c.Session == nil {
		return Config{}, fmt.Errorf("dashboard: log session is required")
	}
	if c.Feed == nil {
		c.Feed = NewFeed()
	}
	if c.Prefs == nil {
		c.Prefs = state.New("", state.ThemeDark)
	}
	if c.Sessions == nil {
		c.Sessions = state.NewSessionStore("", "")
	}
	if c.PanelHeight < styles.MinPanelHeight {
		c.PanelHeight = defaultPanelHeight
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return c, nil
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(cfg Config) error {
	model, err := NewModel(cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// Close saves layout and preferences and closes the log stream for good.
// It is safe to call more than once.
func (m *Model) Close() error {
	if m == nil || m.closed {
		return nil
	}
	m.closed = true
	if m.logsShown {
		m.saveSession()
	}
	err := m.prefs.Close()
	if err != nil {
		m.log.Warn().Err(err).Msg("save preferences")
	}
	m.session.Close()
	m.feed.Close()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForFeedCmd(m.feed), m.bootstrapCmd(false))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.layout()
		return m, nil
	case feedMsg:
		m.applyFeed(m.feed.take())
		return m, waitForFeedCmd(m.feed)
	case submitResultMsg:
		return m, m.handleSubmitResult(typed)
	case clearResultMsg:
		if typed.err != nil {
			return m, m.showToast("Failed to clear logs.", true)
		}
		return m, nil
	case bootstrapResultMsg:
		if typed.err != nil {
			m.log.Debug().Err(typed.err).Msg("bootstrap failed")
		}
		return m, nil
	case toastExpiredMsg:
		if m.toast != nil && m.toast.id == typed.id {
			m.toast = nil
		}
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(typed)
	}

	if m.focus == focusForm {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()
	sections := []string{header, m.renderForm(), m.renderToast()}
	if m.logsShown {
		sections = append(sections, m.renderLogs())
	}
	body := lipgloss.JoinVertical(lipgloss.Left, sections...)

	gap := m.height - lipgloss.Height(body) - lipgloss.Height(footer)
	if gap > 0 {
		body += strings.Repeat("\n", gap)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

func (m *Model) applyFeed(upd feedUpdate) {
	if upd.hasState {
		m.connState = upd.state
	}
	if upd.hasText {
		m.setLogContent(upd.text)
	}
	if upd.scroll {
		m.logs.GotoBottom()
	}
}

func (m *Model) submit() tea.Cmd {
	if m.submitting {
		return nil
	}
	target := strings.TrimSpace(m.input.Value())
	opt := m.option
	m.submitting = true

	if err := m.session.EnsureConnected(); err != nil {
		m.log.Debug().Err(err).Msg("reconnect before submit")
	}

	client := m.client
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := client.Submit(ctx, target, opt)
		return submitResultMsg{url: target, resp: resp, err: err}
	}
}

func (m *Model) handleSubmitResult(msg submitResultMsg) tea.Cmd {
	m.submitting = false
	if msg.err != nil {
		m.log.Error().Err(msg.err).Str("url", logging.RedactURL(msg.url)).Msg("submit failed")
		if errors.Is(msg.err, gallerydl.ErrRejected) {
			// The server answered; only transport failures keep the URL for a retry.
			m.input.Reset()
		}
		return m.showToast("Submit failed: "+msg.err.Error(), true)
	}
	m.log.Info().Str("url", logging.RedactURL(msg.url)).Str("option", string(m.option)).Msg("queued download")
	m.input.Reset()
	if msg.url == "" {
		return nil
	}
	return m.showToast(SuccessToast, false)
}

func (m *Model) clearLogsCmd() tea.Cmd {
	session := m.session
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return clearResultMsg{err: session.ClearLogs(ctx)}
	}
}

func (m *Model) bootstrapCmd(refresh bool) tea.Cmd {
	session := m.session
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if refresh {
			return bootstrapResultMsg{err: session.Refresh(ctx)}
		}
		return bootstrapResultMsg{err: session.Bootstrap(ctx)}
	}
}

func (m *Model) showToast(text string, isError bool) tea.Cmd {
	m.toastSeq++
	id := m.toastSeq
	m.toast = &toast{id: id, text: text, isError: isError}
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m *Model) toggleTheme() {
	if m.theme == state.ThemeDark {
		m.theme = state.ThemeLight
	} else {
		m.theme = state.ThemeDark
	}
	m.prefs.SetTheme(m.theme)
	m.setLogContent(m.rawLogs)
}

func (m *Model) cycleOption(delta int) {
	if delta < 0 {
		m.option = m.option.Prev()
	} else {
		m.option = m.option.Next()
	}
	m.prefs.SetSelectedOption(m.option)
}

func (m *Model) renderForm() string {
	palette := styles.Lookup(m.theme)
	input := m.input.View()

	parts := make([]string, 0, len(gallerydl.VideoOptions))
	for _, opt := range gallerydl.VideoOptions {
		label := opt.Label()
		if opt == m.option {
			parts = append(parts, palette.AccentStyle().Render("["+label+"]"))
			continue
		}
		parts = append(parts, palette.MutedStyle().Render(" "+label+" "))
	}
	format := "Format: " + strings.Join(parts, " ")
	if m.submitting {
		format += palette.MutedStyle().Render("  submitting...")
	}
	return lipgloss.JoinVertical(lipgloss.Left, input, format)
}

// renderToast shows the active toast, or a divider rule on the same row.
func (m *Model) renderToast() string {
	palette := styles.Lookup(m.theme)
	if m.toast == nil {
		return styles.DividerStyle(palette).Render(strings.Repeat("─", maxInt(0, m.width)))
	}
	color := palette.Toast.Success
	if m.toast.isError {
		color = palette.Toast.Error
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
	return style.Render(truncate(m.toast.text, maxInt(0, m.width)))
}
