package gallerydl

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/gdl-dash/internal/logging"
	"github.com/tOgg1/gdl-dash/internal/mockserver"
)

func newMock(t *testing.T, opts mockserver.Options) (*mockserver.Server, *Client) {
	t.Helper()
	srv := mockserver.New(opts)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	c, err := NewClient(ts.URL + "/")
	require.NoError(t, err)
	return srv, c
}

func TestNewClientValidatesURL(t *testing.T) {
	_, err := NewClient("ftp://example.com")
	require.Error(t, err)
	_, err = NewClient("http://")
	require.Error(t, err)

	c, err := NewClient(" https://example.com/gdl/?x=1 ")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/gdl", c.BaseURL())
}

func TestFetchLogsSendsNoCacheHeaders(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, LogsPath, r.URL.Path)
		got = r.Header.Clone()
		_, _ = w.Write([]byte("a\nb\n"))
	}))
	defer ts.Close()

	c, err := NewClient(ts.URL, WithRequestID(func() string { return "rid-1" }))
	require.NoError(t, err)

	text, err := c.FetchLogs(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a\nb\n", text)
	require.Equal(t, "no-cache, no-store, must-revalidate", got.Get("Cache-Control"))
	require.Equal(t, "no-cache", got.Get("Pragma"))
	require.Equal(t, "0", got.Get("Expires"))
	require.Equal(t, "rid-1", got.Get("X-Request-ID"))
}

func TestRequestLogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { logging.Init(logging.DefaultConfig()) })

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x\n"))
	}))
	defer ts.Close()

	c, err := NewClient(ts.URL, WithRequestID(func() string { return "rid-7" }))
	require.NoError(t, err)
	_, err = c.FetchLogs(context.Background())
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, `"request_id":"rid-7"`)
	require.Contains(t, out, `"component":"gallerydl"`)
	require.Contains(t, out, `"message":"request done"`)
}

func TestFetchLogsStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c, err := NewClient(ts.URL)
	require.NoError(t, err)
	_, err = c.FetchLogs(context.Background())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.Code)
}

func TestSubmit(t *testing.T) {
	srv, c := newMock(t, mockserver.Options{})

	resp, err := c.Submit(context.Background(), "https://example.com/gallery", OptionVideo)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "https://example.com/gallery", resp.URL)
	require.Equal(t, "download-video", resp.Options["video-opts"])
	require.Equal(t, []mockserver.Submission{{URL: "https://example.com/gallery", Option: "download-video"}}, srv.Submissions())
}

func TestSubmitDefaultsOption(t *testing.T) {
	srv, c := newMock(t, mockserver.Options{})

	_, err := c.Submit(context.Background(), "https://example.com/x", "")
	require.NoError(t, err)
	require.Equal(t, "none-selected", srv.Submissions()[0].Option)
}

func TestSubmitRejected(t *testing.T) {
	_, c := newMock(t, mockserver.Options{})

	resp, err := c.Submit(context.Background(), "", OptionNone)
	require.True(t, errors.Is(err, ErrRejected))
	require.False(t, resp.Success)
	require.Contains(t, err.Error(), "without a 'url'")
}

func TestClearLogs(t *testing.T) {
	srv, c := newMock(t, mockserver.Options{})
	srv.Append("line")

	resp, err := c.ClearLogs(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Logs successfully cleared.", resp.Message)
	require.Empty(t, srv.Text())

	text, err := c.FetchLogs(context.Background())
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestClearLogsServerError(t *testing.T) {
	_, c := newMock(t, mockserver.Options{ClearStatus: http.StatusNotFound})

	_, err := c.ClearLogs(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusNotFound, se.Code)
	require.Equal(t, "An error occurred while accessing the log file.", se.Message)
}

func TestParseVideoOption(t *testing.T) {
	opt, err := ParseVideoOption("")
	require.NoError(t, err)
	require.Equal(t, OptionNone, opt)

	opt, err = ParseVideoOption(" Extract-Audio ")
	require.NoError(t, err)
	require.Equal(t, OptionAudio, opt)

	_, err = ParseVideoOption("mp3")
	require.Error(t, err)
}

func TestVideoOptionCycle(t *testing.T) {
	require.Equal(t, OptionVideo, OptionNone.Next())
	require.Equal(t, OptionNone, OptionAudio.Next())
	require.Equal(t, OptionAudio, OptionNone.Prev())
	require.Equal(t, "Extract audio", OptionAudio.Label())
}
