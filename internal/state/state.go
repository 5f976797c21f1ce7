// Package state persists dashboard preferences and per-terminal session
// layout to small JSON files.
package state

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/tOgg1/gdl-dash/internal/gallerydl"
)

const (
	CurrentVersion = 1

	ThemeDark  = "dark"
	ThemeLight = "light"

	defaultDebounce = 1 * time.Second
)

// Preferences survive across runs.
type Preferences struct {
	Version        int                   `json:"version"`
	Theme          string                `json:"theme,omitempty"`
	SelectedOption gallerydl.VideoOption `json:"selected_option,omitempty"`
	LogsShown      *bool                 `json:"logs_shown,omitempty"` // nil means never toggled
}

// ShowLogs reports whether the log panel should start visible.
func (p Preferences) ShowLogs() bool {
	return p.LogsShown == nil || *p.LogsShown
}

// DefaultPreferences uses theme when the file carries none.
func DefaultPreferences(theme string) Preferences {
	return normalizePreferences(Preferences{Version: CurrentVersion, Theme: theme}, ThemeDark)
}

type Manager struct {
	path     string
	lockPath string
	theme    string

	mu        sync.Mutex
	prefs     Preferences
	dirty     bool
	timer     *time.Timer
	debounce  time.Duration
	lastWrite time.Time
}

// New returns a manager for path; defaultTheme applies until a theme is saved.
func New(path, defaultTheme string) *Manager {
	path = strings.TrimSpace(path)
	if defaultTheme != ThemeLight {
		defaultTheme = ThemeDark
	}
	return &Manager{
		path:     path,
		lockPath: path + ".lock",
		theme:    defaultTheme,
		prefs:    DefaultPreferences(defaultTheme),
		debounce: defaultDebounce,
	}
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" {
		return nil
	}

	var loaded Preferences
	if err := withFileLock(m.lockPath, func() error {
		payload, err := os.ReadFile(m.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if len(payload) == 0 {
			return nil
		}
		return json.Unmarshal(payload, &loaded)
	}); err != nil {
		return err
	}
	m.prefs = normalizePreferences(loaded, m.theme)
	m.dirty = false
	return nil
}

func (m *Manager) Snapshot() Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clonePreferences(m.prefs)
}

func (m *Manager) SetTheme(theme string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if theme != ThemeDark && theme != ThemeLight {
		return
	}
	if m.prefs.Theme == theme {
		return
	}
	m.prefs.Theme = theme
	m.markDirtyLocked()
}

func (m *Manager) SetSelectedOption(opt gallerydl.VideoOption) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !opt.Valid() || m.prefs.SelectedOption == opt {
		return
	}
	m.prefs.SelectedOption = opt
	m.markDirtyLocked()
}

func (m *Manager) SetLogsShown(shown bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prefs.LogsShown != nil && *m.prefs.LogsShown == shown {
		return
	}
	m.prefs.LogsShown = &shown
	m.markDirtyLocked()
}

func (m *Manager) Close() error {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	needsSave := m.dirty
	m.mu.Unlock()
	if !needsSave {
		return nil
	}
	return m.SaveNow()
}

func (m *Manager) SaveNow() error {
	m.mu.Lock()
	if m.path == "" {
		m.mu.Unlock()
		return nil
	}
	prefs := normalizePreferences(clonePreferences(m.prefs), m.theme)
	m.dirty = false
	m.mu.Unlock()

	if err := withFileLock(m.lockPath, func() error {
		return writeAtomicJSON(m.path, prefs)
	}); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.lastWrite = time.Now().UTC()
	m.mu.Unlock()
	return nil
}

func (m *Manager) markDirtyLocked() {
	m.dirty = true
	if m.path == "" {
		return
	}
	if m.timer == nil {
		m.timer = time.AfterFunc(m.debounce, func() {
			_ = m.SaveNow()
		})
		return
	}
	_ = m.timer.Reset(m.debounce)
}

func normalizePreferences(p Preferences, defaultTheme string) Preferences {
	p.Version = CurrentVersion
	switch p.Theme {
	case ThemeDark, ThemeLight:
	default:
		p.Theme = defaultTheme
	}
	if !p.SelectedOption.Valid() {
		p.SelectedOption = gallerydl.OptionNone
	}
	return p
}

func clonePreferences(p Preferences) Preferences {
	out := p
	if p.LogsShown != nil {
		shown := *p.LogsShown
		out.LogsShown = &shown
	}
	return out
}
