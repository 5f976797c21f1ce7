// Package mockserver is an in-process double of the gallery-dl-server HTTP
// and websocket API.
package mockserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tOgg1/gdl-dash/internal/logging"
)

const (
	writeWait       = 5 * time.Second
	maxFormBytes    = 1 << 20
	defaultStepWait = 200 * time.Millisecond
)

// Options tunes the double.
type Options struct {
	// Simulate appends a short run of transfer-rate lines after every
	// accepted submit.
	Simulate bool
	// StepDelay is the pause between simulated progress lines.
	StepDelay time.Duration
	// ClearStatus forces the clear endpoint to fail with this status.
	ClearStatus int
	Logger      *zerolog.Logger
}

// Server holds the log text and the connected websocket clients.
type Server struct {
	opts   Options
	log    zerolog.Logger
	router chi.Router

	mu      sync.Mutex
	text    strings.Builder
	conns   map[*websocket.Conn]*sync.Mutex
	submits []Submission
	closed  bool

	wg sync.WaitGroup
}

// Submission is one accepted /gallery-dl/q request.
type Submission struct {
	URL    string
	Option string
}

func New(opts Options) *Server {
	if opts.StepDelay <= 0 {
		opts.StepDelay = defaultStepWait
	}
	logger := logging.Component("mockserver")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	s := &Server{
		opts:  opts,
		log:   logger,
		conns: map[*websocket.Conn]*sync.Mutex{},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/stream/logs", s.handleLogs)
	r.Post("/gallery-dl/q", s.handleSubmit)
	r.Post("/gallery-dl/logs/clear", s.handleClear)
	r.Get("/ws/logs", s.handleWS)
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Text returns the full log.
func (s *Server) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

// Submissions returns the accepted submits in arrival order.
func (s *Server) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.submits...)
}

// Clients reports how many websocket clients are attached.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Append writes lines to the log and broadcasts them as one frame.
func (s *Server) Append(lines ...string) {
	if len(lines) == 0 {
		return
	}
	chunk := strings.Join(lines, "\n") + "\n"
	s.mu.Lock()
	s.text.WriteString(chunk)
	s.mu.Unlock()
	s.Broadcast(chunk)
}

// Broadcast sends raw to every client without touching the log.
func (s *Server) Broadcast(raw string) {
	s.mu.Lock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(s.conns))
	for c, m := range s.conns {
		targets[c] = m
	}
	s.mu.Unlock()

	for c, m := range targets {
		m.Lock()
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		err := c.WriteMessage(websocket.TextMessage, []byte(raw))
		m.Unlock()
		if err != nil {
			s.log.Debug().Err(err).Msg("broadcast write failed")
		}
	}
}

// DropClients closes every websocket with an abnormal close so clients see
// a transport failure.
func (s *Server) DropClients() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

// Close shuts down every client with 1001 and waits for handlers.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	targets := make(map[*websocket.Conn]*sync.Mutex, len(s.conns))
	for c, m := range s.conns {
		targets[c] = m
	}
	s.mu.Unlock()

	for c, m := range targets {
		m.Lock()
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(writeWait))
		m.Unlock()
		_ = c.Close()
	}
	s.wg.Wait()
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.Text()))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && err != http.ErrNotMultipart {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		return
	}
	target := strings.TrimSpace(r.FormValue("url"))
	option := r.FormValue("video-opts")
	if option == "" {
		option = "none-selected"
	}
	if target == "" {
		s.log.Error().Msg("no url in form data")
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   "/q called without a 'url' in form data",
		})
		return
	}

	s.mu.Lock()
	s.submits = append(s.submits, Submission{URL: target, Option: option})
	s.mu.Unlock()

	s.log.Info().
		Str("request_id", r.Header.Get("X-Request-ID")).
		Str("url", logging.RedactURL(target)).
		Msg("queued")
	s.Append("Added URL to the download queue: " + target)

	if s.opts.Simulate && s.track() {
		go s.simulate(target)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"url":     target,
		"options": map[string]string{"video-opts": option},
	})
}

func (s *Server) simulate(target string) {
	defer s.wg.Done()
	total := 4.0
	for i := 1; i <= 4; i++ {
		time.Sleep(s.opts.StepDelay)
		if s.isClosed() {
			return
		}
		s.Append(fmt.Sprintf("[download] %5.1f%% of %.2fMiB at %.2fMiB/s ETA 00:%02d",
			float64(i)*25, total, 1.5+float64(i)/10, 4-i))
	}
	if s.isClosed() {
		return
	}
	s.Append("Download process exited successfully")
}

// track registers a background goroutine with Close. It reports false once
// the server is closed.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if code := s.opts.ClearStatus; code != 0 {
		writeJSON(w, code, map[string]any{
			"success": false,
			"error":   "An error occurred while accessing the log file.",
		})
		return
	}
	s.mu.Lock()
	s.text.Reset()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logs successfully cleared.",
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conns[conn] = &sync.Mutex{}
	s.wg.Add(1)
	s.mu.Unlock()
	s.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket client attached")

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
			_ = conn.Close()
		}()
		// Clients never send data frames; reading drives control frames.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
