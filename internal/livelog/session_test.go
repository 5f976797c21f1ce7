package livelog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/gdl-dash/internal/gallerydl"
	"github.com/tOgg1/gdl-dash/internal/logbuffer"
	"github.com/tOgg1/gdl-dash/internal/mockserver"
	"github.com/tOgg1/gdl-dash/internal/stream"
)

const waitFor = 3 * time.Second

type surface struct {
	mu     sync.Mutex
	text   string
	scroll int
	calls  int
}

func (s *surface) Render(text string, scroll bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.calls++
	if scroll {
		s.scroll++
	}
}

func (s *surface) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

type fixture struct {
	srv     *mockserver.Server
	ts      *httptest.Server
	session *Session
	surface *surface
}

func newFixture(t *testing.T, opts mockserver.Options) *fixture {
	t.Helper()
	srv := mockserver.New(opts)
	ts := httptest.NewServer(srv)

	client, err := gallerydl.NewClient(ts.URL)
	require.NoError(t, err)

	surf := &surface{}
	sess, err := New(Config{
		Client:         client,
		Surface:        surf,
		ReconnectDelay: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		sess.Close()
		srv.Close()
		ts.Close()
	})
	return &fixture{srv: srv, ts: ts, session: sess, surface: surf}
}

func (f *fixture) waitAttached(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.session.Connection().State() == stream.Connected && f.srv.Clients() == n
	}, waitFor, 5*time.Millisecond)
}

func TestBootstrapLoadsSnapshotThenStreams(t *testing.T) {
	f := newFixture(t, mockserver.Options{})
	f.srv.Append("first", "second")

	require.NoError(t, f.session.Bootstrap(context.Background()))
	require.Equal(t, "first\nsecond\n", f.session.Buffer().Text())
	f.waitAttached(t, 1)

	f.srv.Append("third")
	require.Eventually(t, func() bool {
		return f.session.Buffer().Text() == "first\nsecond\nthird\n"
	}, waitFor, 5*time.Millisecond)
	require.Equal(t, "first\nsecond\nthird\n", f.surface.Text())
}

func TestStreamCoalescesProgress(t *testing.T) {
	f := newFixture(t, mockserver.Options{})
	require.NoError(t, f.session.Bootstrap(context.Background()))
	f.waitAttached(t, 1)

	f.srv.Append("Downloading x")
	f.srv.Append("[download] 10% at 1.0MiB/s")
	f.srv.Append("[download] 60% at 2.0MiB/s")
	f.srv.Append("done")

	require.Eventually(t, func() bool {
		return f.session.Buffer().Text() == "Downloading x\n[download] 60% at 2.0MiB/s\ndone\n"
	}, waitFor, 5*time.Millisecond)
}

func TestOnChunkSeesMergeResult(t *testing.T) {
	srv := mockserver.New(mockserver.Options{})
	ts := httptest.NewServer(srv)
	client, err := gallerydl.NewClient(ts.URL)
	require.NoError(t, err)

	results := make(chan logbuffer.MergeResult, 4)
	sess, err := New(Config{
		Client:  client,
		OnChunk: func(r logbuffer.MergeResult) { results <- r },
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sess.Close()
		srv.Close()
		ts.Close()
	})

	srv.Append("1 B/s")
	require.NoError(t, sess.Bootstrap(context.Background()))
	require.Eventually(t, func() bool { return srv.Clients() == 1 }, waitFor, 5*time.Millisecond)

	srv.Broadcast("2 B/s\n")
	select {
	case r := <-results:
		require.True(t, r.Coalesced())
		require.False(t, r.ShouldScroll())
	case <-time.After(waitFor):
		t.Fatal("no chunk observed")
	}
	require.Equal(t, "2 B/s\n", sess.Buffer().Text())
}

func TestFetchFailureDoesNotConnect(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	client, err := gallerydl.NewClient(ts.URL)
	require.NoError(t, err)
	surf := &surface{}
	sess, err := New(Config{Client: client, Surface: surf})
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	require.Error(t, sess.Bootstrap(context.Background()))
	require.Equal(t, stream.Disconnected, sess.Connection().State())
	require.Empty(t, sess.Buffer().Text())
	require.Zero(t, surf.calls)
}

func TestReconnectsAfterServerDrop(t *testing.T) {
	f := newFixture(t, mockserver.Options{})
	require.NoError(t, f.session.Bootstrap(context.Background()))
	f.waitAttached(t, 1)

	f.srv.DropClients()
	require.Eventually(t, func() bool { return f.srv.Clients() == 0 }, waitFor, 5*time.Millisecond)
	f.waitAttached(t, 1)

	f.srv.Append("after reconnect")
	require.Eventually(t, func() bool {
		return f.session.Buffer().Text() == "after reconnect\n"
	}, waitFor, 5*time.Millisecond)
}

func TestCloseStopsReconnecting(t *testing.T) {
	f := newFixture(t, mockserver.Options{})
	require.NoError(t, f.session.Bootstrap(context.Background()))
	f.waitAttached(t, 1)

	f.session.Close()
	require.False(t, f.session.Lifetime().Alive())
	require.Eventually(t, func() bool { return f.srv.Clients() == 0 }, waitFor, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	require.Zero(t, f.srv.Clients())
	require.ErrorIs(t, f.session.EnsureConnected(), stream.ErrLifetimeEnded)
}

func TestEnsureConnectedOnlyWhenClosed(t *testing.T) {
	f := newFixture(t, mockserver.Options{})
	require.NoError(t, f.session.EnsureConnected())
	f.waitAttached(t, 1)

	require.NoError(t, f.session.EnsureConnected())
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, f.srv.Clients())
}

func TestClearLogs(t *testing.T) {
	f := newFixture(t, mockserver.Options{})
	f.srv.Append("old")
	require.NoError(t, f.session.Bootstrap(context.Background()))

	require.NoError(t, f.session.ClearLogs(context.Background()))
	require.Equal(t, ClearedText+"\n", f.session.Buffer().Text())
	require.Empty(t, f.srv.Text())
}

func TestClearLogsFailure(t *testing.T) {
	f := newFixture(t, mockserver.Options{ClearStatus: http.StatusInternalServerError})
	f.srv.Append("old")
	require.NoError(t, f.session.Bootstrap(context.Background()))

	require.Error(t, f.session.ClearLogs(context.Background()))
	require.Equal(t, ClearFailedText+"\n", f.session.Buffer().Text())
	require.Equal(t, "old\n", f.srv.Text())
}

func TestRefreshPicksUpMissedLines(t *testing.T) {
	f := newFixture(t, mockserver.Options{})
	require.NoError(t, f.session.Bootstrap(context.Background()))
	f.waitAttached(t, 1)

	// Lines written while no client saw them.
	f.session.Buffer().Reset("stale")
	f.srv.Append("missed")
	require.Eventually(t, func() bool {
		return f.session.Buffer().Text() == "stale\nmissed\n"
	}, waitFor, 5*time.Millisecond)

	require.NoError(t, f.session.Refresh(context.Background()))
	require.Equal(t, "missed\n", f.session.Buffer().Text())
}

func TestOnSnapshotRunsOnlyOnChange(t *testing.T) {
	srv := mockserver.New(mockserver.Options{})
	ts := httptest.NewServer(srv)
	client, err := gallerydl.NewClient(ts.URL)
	require.NoError(t, err)

	var snapshots [][]string
	sess, err := New(Config{
		Client:     client,
		OnSnapshot: func(lines []string) { snapshots = append(snapshots, lines) },
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sess.Close()
		srv.Close()
		ts.Close()
	})

	srv.Append("a", "b")
	require.NoError(t, sess.Bootstrap(context.Background()))
	require.NoError(t, sess.Refresh(context.Background()))
	require.Equal(t, [][]string{{"a", "b"}}, snapshots)
}
