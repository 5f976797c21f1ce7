package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tOgg1/gdl-dash/internal/logging"
)

const (
	// DefaultReconnectDelay is how long to wait before redialing a dropped stream.
	DefaultReconnectDelay = 2 * time.Second

	// LogsPath is the live log endpoint on the server.
	LogsPath = "/ws/logs"

	// CloseReason accompanies the normal-closure frame sent on shutdown.
	CloseReason = "User is leaving the page"

	writeWait  = 10 * time.Second
	closeGrace = 1 * time.Second
)

var (
	// ErrActive is returned by Connect while a connection is connecting or connected.
	ErrActive = errors.New("stream: connection already active")

	// ErrLifetimeEnded is returned by Connect after CloseForUnload.
	ErrLifetimeEnded = errors.New("stream: lifetime ended")
)

// Conn is the subset of *websocket.Conn used by Connection.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Dialer opens a websocket connection.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
	Header http.Header
}

// Dial opens target with the configured gorilla dialer.
func (d WebsocketDialer) Dial(ctx context.Context, target string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, target, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", target, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return conn, nil
}

// Timer is a pending reconnect.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func defaultAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Config configures a Connection.
type Config struct {
	URL            string
	ReconnectDelay time.Duration
	Dialer         Dialer
	Lifetime       *Lifetime
	OnMessage      func(payload string)
	OnState        func(State)
	AfterFunc      AfterFunc
	Logger         *zerolog.Logger
}

// Connection owns at most one live websocket to the log stream.
type Connection struct {
	url       string
	delay     time.Duration
	dialer    Dialer
	lifetime  *Lifetime
	onMessage func(string)
	onState   func(State)
	afterFunc AfterFunc
	log       zerolog.Logger

	mu     sync.Mutex
	state  State
	conn   Conn
	timer  Timer
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a disconnected Connection. Nothing is dialed until Connect.
func New(cfg Config) (*Connection, error) {
	target := strings.TrimSpace(cfg.URL)
	if target == "" {
		return nil, fmt.Errorf("stream url is required")
	}
	c := &Connection{
		url:       target,
		delay:     cfg.ReconnectDelay,
		dialer:    cfg.Dialer,
		lifetime:  cfg.Lifetime,
		onMessage: cfg.OnMessage,
		onState:   cfg.OnState,
		afterFunc: cfg.AfterFunc,
	}
	if c.delay <= 0 {
		c.delay = DefaultReconnectDelay
	}
	if c.dialer == nil {
		c.dialer = WebsocketDialer{}
	}
	if c.lifetime == nil {
		c.lifetime = NewLifetime()
	}
	if c.afterFunc == nil {
		c.afterFunc = defaultAfterFunc
	}
	if cfg.Logger != nil {
		c.log = *cfg.Logger
	} else {
		c.log = logging.Component("stream")
	}
	return c, nil
}

// URL returns the websocket endpoint this connection dials.
func (c *Connection) URL() string { return c.url }

// Lifetime returns the gate shared with the connection's owner.
func (c *Connection) Lifetime() *Lifetime { return c.lifetime }

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts a new connection attempt. It fails with ErrActive while a
// previous connection is still connecting or connected.
func (c *Connection) Connect(allowReconnect bool) error {
	c.mu.Lock()
	if !c.lifetime.Alive() {
		c.mu.Unlock()
		return ErrLifetimeEnded
	}
	if c.state != Disconnected {
		c.mu.Unlock()
		return ErrActive
	}
	// A manual connect supersedes a pending reconnect.
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state = Connecting
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	c.notify(Connecting)
	go c.run(ctx, cancel, allowReconnect, done)
	return nil
}

// CloseForUnload disables reconnection, then closes the live socket with a
// normal-closure frame.
func (c *Connection) CloseForUnload() {
	c.lifetime.End()

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn == nil {
		return
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, CloseReason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		c.log.Debug().Err(err).Msg("write close frame")
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(closeGrace):
		}
	}
	_ = conn.Close()
}

func (c *Connection) run(ctx context.Context, cancel context.CancelFunc, allowReconnect bool, done chan struct{}) {
	defer close(done)
	defer cancel()

	conn, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
		c.log.Warn().Err(err).Str("url", c.url).Msg("websocket connection could not be established")
		c.notify(Disconnected)
		return
	}

	c.mu.Lock()
	if !c.lifetime.Alive() {
		c.state = Disconnected
		c.mu.Unlock()
		_ = conn.Close()
		c.notify(Disconnected)
		return
	}
	c.conn = conn
	c.state = Connected
	c.mu.Unlock()
	c.log.Info().Str("url", c.url).Msg("websocket connection established")
	c.notify(Connected)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			break
		}
		if c.onMessage != nil {
			c.onMessage(string(payload))
		}
	}
	_ = conn.Close()
	c.handleClose(allowReconnect)
}

// handleClose runs only for connections that reached Connected.
func (c *Connection) handleClose(allowReconnect bool) {
	c.mu.Lock()
	c.conn = nil
	c.state = Disconnected
	c.mu.Unlock()
	c.notify(Disconnected)

	if !allowReconnect {
		return
	}

	c.mu.Lock()
	scheduled := false
	if c.lifetime.Alive() && c.state == Disconnected && c.timer == nil {
		c.timer = c.afterFunc(c.delay, func() { c.reconnect(allowReconnect) })
		scheduled = true
	}
	c.mu.Unlock()

	if scheduled {
		c.log.Info().Dur("delay", c.delay).Msg("websocket connection closed, attempting to reconnect")
	}
}

func (c *Connection) reconnect(allowReconnect bool) {
	if err := c.Connect(allowReconnect); err != nil {
		c.log.Debug().Err(err).Msg("reconnect skipped")
	}
}

func (c *Connection) logReadError(err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.log.Debug().Err(err).Msg("websocket closed")
		return
	}
	c.log.Error().Err(err).Msg("websocket error")
}

func (c *Connection) notify(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}

// WebsocketURL derives the live log endpoint from the server base URL,
// upgrading http to ws and https to wss.
func WebsocketURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server url %q has no host", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + LogsPath
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String(), nil
}
