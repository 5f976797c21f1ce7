package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/gdl-dash/internal/dashboard"
	"github.com/tOgg1/gdl-dash/internal/livelog"
	"github.com/tOgg1/gdl-dash/internal/state"
)

var errNoTTY = errors.New("dashboard requires an interactive terminal (try 'gdl-dash tail')")

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func runDashboard(cmd *cobra.Command, opts *globalOptions) error {
	if !hasTTY() {
		return errNoTTY
	}
	rt, err := setup(cmd, opts, true)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg := rt.cfg

	prefs := state.New(cfg.State.Path, cfg.TUI.Theme)
	if err := prefs.Load(); err != nil {
		// Non-fatal: fall back to in-memory defaults.
		rt.log.Warn().Err(err).Str("path", cfg.State.Path).Msg("load preferences")
	}

	feed := dashboard.NewFeed()
	session, err := livelog.New(livelog.Config{
		Client:         rt.client,
		Surface:        feed,
		ReconnectDelay: cfg.Stream.ReconnectDelay,
		OnState:        feed.SetState,
	})
	if err != nil {
		return err
	}

	rt.log.Info().Str("server", cfg.Server.URL).Msg("dashboard starting")
	return dashboard.Run(dashboard.Config{
		ServerURL:      cfg.Server.URL,
		Client:         rt.client,
		Session:        session,
		Feed:           feed,
		Prefs:          prefs,
		Sessions:       state.NewSessionStore(cfg.State.SessionDir, state.SessionKey()),
		PanelHeight:    cfg.TUI.PanelHeight,
		RequestTimeout: cfg.Server.Timeout,
	})
}
