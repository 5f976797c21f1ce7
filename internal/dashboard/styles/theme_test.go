package styles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupFallsBackToDark(t *testing.T) {
	require.Equal(t, "light", Lookup("light").Name)
	require.Equal(t, "dark", Lookup("neon").Name)
}

func TestThemesDefineEveryToken(t *testing.T) {
	for name, theme := range Themes {
		require.Equal(t, name, theme.Name)
		require.NotEmpty(t, theme.Base.Foreground, name)
		require.NotEmpty(t, theme.Status.Connected, name)
		require.NotEmpty(t, theme.Status.Disconnected, name)
		require.NotEmpty(t, theme.Toast.Success, name)
		require.NotEmpty(t, theme.Chrome.Header, name)
		require.NotEmpty(t, theme.Borders.ActivePane, name)
	}
}

func TestPanelFrame(t *testing.T) {
	h, v := PanelFrame(DarkTheme)
	require.Equal(t, 2+2*LayoutInnerPadding, h)
	require.Equal(t, 2, v)
}
