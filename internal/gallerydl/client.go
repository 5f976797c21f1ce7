package gallerydl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tOgg1/gdl-dash/internal/logging"
)

const (
	SubmitPath    = "/gallery-dl/q"
	LogsPath      = "/stream/logs"
	ClearLogsPath = "/gallery-dl/logs/clear"

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 64 << 20
)

// ErrRejected is returned when the server answers with success=false.
var ErrRejected = errors.New("gallery-dl-server rejected request")

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("response status: %d", e.Code)
	}
	return fmt.Sprintf("response status: %d: %s", e.Code, e.Message)
}

// SubmitResponse is the /gallery-dl/q acknowledgement.
type SubmitResponse struct {
	Success bool              `json:"success"`
	URL     string            `json:"url,omitempty"`
	Options map[string]string `json:"options,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ClearResponse is the /gallery-dl/logs/clear acknowledgement.
type ClearResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client talks to one gallery-dl-server instance.
type Client struct {
	base  *url.URL
	http  *http.Client
	newID func() string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
		}
	}
}

// WithRequestID overrides the X-Request-ID generator.
func WithRequestID(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https, got %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server url %q has no host", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	c := &Client{
		base:  u,
		http:  &http.Client{Timeout: defaultTimeout},
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// FetchLogs returns the full current log text, bypassing HTTP caches.
func (c *Client) FetchLogs(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, LogsPath, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Expires", "0")

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read logs: %w", err)
	}
	return string(body), nil
}

// ClearLogs asks the server to truncate its log file.
func (c *Client) ClearLogs(ctx context.Context) (ClearResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, ClearLogsPath, nil)
	if err != nil {
		return ClearResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out ClearResponse
	if err := c.doJSON(req, &out); err != nil {
		return out, err
	}
	if !out.Success {
		return out, fmt.Errorf("%w: %s", ErrRejected, out.Error)
	}
	return out, nil
}

// Submit enqueues target for download with the given option.
func (c *Client) Submit(ctx context.Context, target string, opt VideoOption) (SubmitResponse, error) {
	if opt == "" {
		opt = OptionNone
	}
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("url", target); err != nil {
		return SubmitResponse{}, fmt.Errorf("encode form: %w", err)
	}
	if err := form.WriteField("video-opts", string(opt)); err != nil {
		return SubmitResponse{}, fmt.Errorf("encode form: %w", err)
	}
	if err := form.Close(); err != nil {
		return SubmitResponse{}, fmt.Errorf("encode form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, SubmitPath, &body)
	if err != nil {
		return SubmitResponse{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	log := logging.FromContext(req.Context())
	log.Debug().Str("url", logging.RedactURL(target)).Str("option", string(opt)).Msg("submitting download")

	var out SubmitResponse
	if err := c.doJSON(req, &out); err != nil {
		return out, err
	}
	if !out.Success {
		return out, fmt.Errorf("%w: %s", ErrRejected, out.Error)
	}
	return out, nil
}

// newRequest tags the request with a fresh X-Request-ID and carries a
// logger with the same id on its context.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	target := *c.base
	target.Path = c.base.Path + path
	id := c.newID()
	ctx = logging.WithContext(ctx, logging.WithRequest("gallerydl", id))
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Request-ID", id)
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	log := logging.FromContext(req.Context())
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request done")
	return resp, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	decodeErr := json.Unmarshal(payload, out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(payload)}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}

func errorMessage(payload []byte) string {
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return ""
	}
	if env.Error != "" {
		return env.Error
	}
	return env.Message
}
