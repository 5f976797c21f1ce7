// Package cli wires the gdl-dash commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/gdl-dash/internal/config"
	"github.com/tOgg1/gdl-dash/internal/gallerydl"
	"github.com/tOgg1/gdl-dash/internal/logging"
)

type globalOptions struct {
	configFile string
}

// flagKeys maps persistent flags to the config keys they override.
var flagKeys = map[string]string{
	"server":     "server.url",
	"log-level":  "logging.level",
	"log-format": "logging.format",
	"log-file":   "logging.file",
}

func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

func NewRootCmd(version string) *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "gdl-dash",
		Short:         "gallery-dl-server terminal dashboard",
		Long:          "Submit downloads to a gallery-dl-server and follow its live log.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/gdl-dash/config.yaml)")
	pf.String("server", "", "gallery-dl-server base URL")
	pf.String("log-level", "", "override logging level (debug, info, warn, error)")
	pf.String("log-format", "", "override logging format (json, console)")
	pf.String("log-file", "", "write logs to this file")

	cmd.AddCommand(
		newTailCmd(opts),
		newSubmitCmd(opts),
		newClearCmd(opts),
		newMockServerCmd(opts),
	)
	return cmd
}

// runtime is the per-invocation wiring shared by every command.
type runtime struct {
	cfg    *config.Config
	client *gallerydl.Client
	log    zerolog.Logger
	close  func()
}

// setup loads config, initializes logging and builds the API client. With
// quiet set, logs go only to the configured file so they never draw over a
// full-screen UI.
func setup(cmd *cobra.Command, opts *globalOptions, quiet bool) (*runtime, error) {
	loader := config.NewLoader()
	if opts.configFile != "" {
		loader.SetConfigFile(opts.configFile)
	}
	for name, key := range flagKeys {
		if err := loader.BindFlag(key, cmd.Flag(name)); err != nil {
			return nil, err
		}
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	var out io.Writer = cmd.ErrOrStderr()
	closeLog := func() {}
	if cfg.Logging.File != "" {
		f, err := logging.OpenFile(cfg.Logging.File)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeLog = func() { _ = f.Close() }
	} else if quiet {
		out = io.Discard
	}
	lc := cfg.LoggingSettings()
	lc.Output = out
	logging.Init(lc)

	log := logging.Component("cli")
	if used := loader.ConfigFileUsed(); used != "" {
		log.Debug().Str("config_file", used).Msg("loaded config file")
	}

	client, err := gallerydl.NewClient(cfg.Server.URL, gallerydl.WithTimeout(cfg.Server.Timeout))
	if err != nil {
		closeLog()
		return nil, err
	}
	return &runtime{cfg: cfg, client: client, log: log, close: closeLog}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
