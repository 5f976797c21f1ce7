// Package config handles gdl-dash configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tOgg1/gdl-dash/internal/logging"
)

// Config is the root configuration structure for gdl-dash.
type Config struct {
	// Server locates the gallery-dl-server instance.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Stream tunes the live log websocket.
	Stream StreamConfig `yaml:"stream" mapstructure:"stream"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`

	// State locates the persisted UI state files.
	State StateConfig `yaml:"state" mapstructure:"state"`
}

// ServerConfig contains gallery-dl-server settings.
type ServerConfig struct {
	// URL is the server base URL (default: http://localhost:9080).
	URL string `yaml:"url" mapstructure:"url"`

	// Timeout bounds every HTTP request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// StreamConfig contains websocket settings.
type StreamConfig struct {
	// ReconnectDelay is the wait before redialing after a dropped stream.
	ReconnectDelay time.Duration `yaml:"reconnect_delay" mapstructure:"reconnect_delay"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. The dashboard discards logs without one.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme is the initial theme when no preference is saved (dark, light).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// PanelHeight is the default log panel height in rows.
	PanelHeight int `yaml:"panel_height" mapstructure:"panel_height"`
}

// StateConfig contains persisted state locations.
type StateConfig struct {
	// Path is the durable preferences file.
	Path string `yaml:"path" mapstructure:"path"`

	// SessionDir holds per-terminal session files.
	SessionDir string `yaml:"session_dir" mapstructure:"session_dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Server: ServerConfig{
			URL:     "http://localhost:9080",
			Timeout: 15 * time.Second,
		},
		Stream: StreamConfig{
			ReconnectDelay: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		TUI: TUIConfig{
			Theme:       "dark",
			PanelHeight: 12,
		},
		State: StateConfig{
			Path:       filepath.Join(homeDir, ".config", "gdl-dash", "state.json"),
			SessionDir: defaultSessionDir(),
		},
	}
}

func defaultSessionDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "gdl-dash")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("gdl-dash-%d", os.Getuid()))
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("server.url must include a host")
	}

	if c.Server.Timeout < 100*time.Millisecond {
		return fmt.Errorf("server.timeout must be at least 100ms")
	}

	if c.Stream.ReconnectDelay < 0 {
		return fmt.Errorf("stream.reconnect_delay must not be negative")
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console")
	}

	switch c.TUI.Theme {
	case "dark", "light":
	default:
		return fmt.Errorf("tui.theme must be dark or light")
	}
	if c.TUI.PanelHeight < 3 {
		return fmt.Errorf("tui.panel_height must be at least 3")
	}

	if c.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}
	if c.State.SessionDir == "" {
		return fmt.Errorf("state.session_dir is required")
	}

	return nil
}

// LoggingSettings converts the logging section for logging.Init.
func (c *Config) LoggingSettings() logging.Config {
	return logging.Config{
		Level:        c.Logging.Level,
		Format:       c.Logging.Format,
		EnableCaller: c.Logging.EnableCaller,
	}
}
