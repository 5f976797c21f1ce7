// Package livelog keeps a logbuffer in sync with a gallery-dl-server: one
// snapshot fetch followed by the live websocket stream.
package livelog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/gdl-dash/internal/gallerydl"
	"github.com/tOgg1/gdl-dash/internal/logbuffer"
	"github.com/tOgg1/gdl-dash/internal/logging"
	"github.com/tOgg1/gdl-dash/internal/stream"
)

const (
	ClearedText     = "Cleared logs."
	ClearFailedText = "Failed to clear logs."
)

// Client is the part of the API a Session needs.
type Client interface {
	BaseURL() string
	FetchLogs(ctx context.Context) (string, error)
	ClearLogs(ctx context.Context) (gallerydl.ClearResponse, error)
}

type Config struct {
	Client  Client
	Surface logbuffer.Surface

	// StreamURL overrides the websocket URL derived from the client.
	StreamURL      string
	ReconnectDelay time.Duration
	Dialer         stream.Dialer
	AfterFunc      stream.AfterFunc
	OnState        func(stream.State)
	// OnSnapshot observes a snapshot that changed the buffer, before the
	// stream is opened.
	OnSnapshot func(lines []string)
	// OnChunk observes every merged stream chunk after the buffer applied it.
	OnChunk func(logbuffer.MergeResult)
	Logger  *zerolog.Logger
}

// Session owns the buffer and the connection feeding it.
type Session struct {
	client     Client
	buf        *logbuffer.Buffer
	conn       *stream.Connection
	lifetime   *stream.Lifetime
	onSnapshot func([]string)
	onChunk    func(logbuffer.MergeResult)
	log        zerolog.Logger
}

func New(cfg Config) (*Session, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("livelog: client is required")
	}
	wsURL := cfg.StreamURL
	if wsURL == "" {
		derived, err := stream.WebsocketURL(cfg.Client.BaseURL())
		if err != nil {
			return nil, err
		}
		wsURL = derived
	}

	s := &Session{
		client:     cfg.Client,
		buf:        logbuffer.New(cfg.Surface),
		lifetime:   stream.NewLifetime(),
		onSnapshot: cfg.OnSnapshot,
		onChunk:    cfg.OnChunk,
	}
	if cfg.Logger != nil {
		s.log = *cfg.Logger
	} else {
		s.log = logging.Component("livelog")
	}

	conn, err := stream.New(stream.Config{
		URL:            wsURL,
		ReconnectDelay: cfg.ReconnectDelay,
		Dialer:         cfg.Dialer,
		Lifetime:       s.lifetime,
		OnMessage:      s.handleChunk,
		OnState:        cfg.OnState,
		AfterFunc:      cfg.AfterFunc,
		Logger:         cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	s.conn = conn
	return s, nil
}

func (s *Session) Buffer() *logbuffer.Buffer { return s.buf }

func (s *Session) Connection() *stream.Connection { return s.conn }

func (s *Session) Lifetime() *stream.Lifetime { return s.lifetime }

// Bootstrap loads the current log snapshot and then opens the live stream.
// A failed fetch leaves the buffer untouched and does not connect; the
// error is logged and returned for information only.
func (s *Session) Bootstrap(ctx context.Context) error {
	text, err := s.client.FetchLogs(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("error fetching logs")
		return fmt.Errorf("fetch logs: %w", err)
	}
	if s.buf.LoadSnapshot(text) {
		s.log.Debug().Int("lines", s.buf.Len()).Msg("snapshot loaded")
		if s.onSnapshot != nil {
			s.onSnapshot(s.buf.Lines())
		}
	}
	if s.conn.State() == stream.Connected {
		return nil
	}
	return s.connect()
}

// Refresh re-runs Bootstrap on user request.
func (s *Session) Refresh(ctx context.Context) error {
	return s.Bootstrap(ctx)
}

// EnsureConnected reopens the stream when it is fully closed.
func (s *Session) EnsureConnected() error {
	if s.conn.State() != stream.Disconnected {
		return nil
	}
	return s.connect()
}

// ClearLogs truncates the server log and replaces the buffer with a status
// line.
func (s *Session) ClearLogs(ctx context.Context) error {
	if _, err := s.client.ClearLogs(ctx); err != nil {
		s.log.Error().Err(err).Msg("clear logs failed")
		s.buf.Reset(ClearFailedText)
		return err
	}
	s.buf.Reset(ClearedText)
	return nil
}

// Close is the unload path: no reconnect is ever attempted afterwards.
func (s *Session) Close() {
	s.conn.CloseForUnload()
}

func (s *Session) connect() error {
	err := s.conn.Connect(true)
	if errors.Is(err, stream.ErrActive) {
		return nil
	}
	return err
}

func (s *Session) handleChunk(payload string) {
	res, changed := s.buf.ApplyStreamChunk(payload)
	if !changed {
		return
	}
	if s.onChunk != nil {
		s.onChunk(res)
	}
}
