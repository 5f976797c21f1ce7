package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/gdl-dash/internal/gallerydl"
)

func TestManager_LoadMissingFileOK(t *testing.T) {
	root := t.TempDir()
	m := New(filepath.Join(root, "gdl-dash", "state.json"), ThemeLight)
	require.NoError(t, m.Load())
	p := m.Snapshot()
	require.Equal(t, CurrentVersion, p.Version)
	require.Equal(t, ThemeLight, p.Theme)
	require.Equal(t, gallerydl.OptionNone, p.SelectedOption)
	require.True(t, p.ShowLogs())
}

func TestManager_RoundTrip(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "state.json")
	m := New(path, ThemeDark)
	require.NoError(t, m.Load())

	m.SetTheme(ThemeLight)
	m.SetSelectedOption(gallerydl.OptionAudio)
	m.SetLogsShown(false)
	require.NoError(t, m.Close())

	m2 := New(path, ThemeDark)
	require.NoError(t, m2.Load())
	p := m2.Snapshot()
	require.Equal(t, ThemeLight, p.Theme)
	require.Equal(t, gallerydl.OptionAudio, p.SelectedOption)
	require.False(t, p.ShowLogs())
}

func TestManager_NormalizesInvalidValues(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"neon","selected_option":"mp3"}`), 0o644))

	m := New(path, ThemeDark)
	require.NoError(t, m.Load())
	p := m.Snapshot()
	require.Equal(t, ThemeDark, p.Theme)
	require.Equal(t, gallerydl.OptionNone, p.SelectedOption)
	require.Equal(t, CurrentVersion, p.Version)
}

func TestManager_IgnoresInvalidSetters(t *testing.T) {
	m := New("", ThemeDark)
	m.SetTheme("neon")
	m.SetSelectedOption("mp3")
	p := m.Snapshot()
	require.Equal(t, ThemeDark, p.Theme)
	require.Equal(t, gallerydl.OptionNone, p.SelectedOption)
	require.NoError(t, m.Close())
}

func TestManager_CloseWithoutChangesDoesNotWrite(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "state.json")
	m := New(path, ThemeDark)
	require.NoError(t, m.Load())
	require.NoError(t, m.Close())
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestSessionStore_RoundTrip(t *testing.T) {
	root := t.TempDir()
	s := NewSessionStore(root, "tty1")

	sess, err := s.Load()
	require.NoError(t, err)
	require.Zero(t, sess.PanelHeight)
	require.Nil(t, sess.ScrollOffset)

	offset := 7
	require.NoError(t, s.Save(Session{PanelHeight: 18, ScrollOffset: &offset}))

	sess, err = NewSessionStore(root, "tty1").Load()
	require.NoError(t, err)
	require.Equal(t, 18, sess.PanelHeight)
	require.NotNil(t, sess.ScrollOffset)
	require.Equal(t, 7, *sess.ScrollOffset)

	other, err := NewSessionStore(root, "tty2").Load()
	require.NoError(t, err)
	require.Nil(t, other.ScrollOffset)

	require.NoError(t, s.Clear())
	sess, err = s.Load()
	require.NoError(t, err)
	require.Zero(t, sess.PanelHeight)
}

func TestSessionStore_DropsNegativeValues(t *testing.T) {
	root := t.TempDir()
	s := NewSessionStore(root, "k")
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"panel_height":-3,"scroll_offset":-1}`), 0o644))

	sess, err := s.Load()
	require.NoError(t, err)
	require.Zero(t, sess.PanelHeight)
	require.Nil(t, sess.ScrollOffset)
}
