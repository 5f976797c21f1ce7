package logbuffer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type renderCall struct {
	text   string
	scroll bool
}

type recordingSurface struct {
	calls []renderCall
}

func (s *recordingSurface) Render(text string, scroll bool) {
	s.calls = append(s.calls, renderCall{text: text, scroll: scroll})
}

func (s *recordingSurface) last(t *testing.T) renderCall {
	t.Helper()
	require.NotEmpty(t, s.calls)
	return s.calls[len(s.calls)-1]
}

func TestCoalescingIsIdempotent(t *testing.T) {
	surface := &recordingSurface{}
	b := New(surface)
	b.LoadSnapshot("queued\n")

	for i := 0; i < 25; i++ {
		_, ok := b.ApplyStreamChunk(fmt.Sprintf("%d.0 KiB/s\n", i))
		require.True(t, ok)
	}
	require.Equal(t, []string{"queued", "24.0 KiB/s"}, b.Lines())
}

func TestNonProgressLinesArePreserved(t *testing.T) {
	b := New(nil)
	b.LoadSnapshot("one\n")
	_, ok := b.ApplyStreamChunk("  two \n\nthree\n   \nfour")
	require.True(t, ok)
	require.Equal(t, []string{"one", "two", "three", "four"}, b.Lines())
	require.Equal(t, "one\ntwo\nthree\nfour\n", b.Text())
}

func TestMixedChunkScrollsToBottom(t *testing.T) {
	surface := &recordingSurface{}
	b := New(surface)
	b.LoadSnapshot("3.2 B/s\n")

	res, ok := b.ApplyStreamChunk("4.1 B/s\nDownload complete")
	require.True(t, ok)
	require.True(t, res.Coalesced())
	require.Equal(t, []string{"4.1 B/s", "Download complete"}, b.Lines())
	require.Equal(t, renderCall{text: "4.1 B/s\nDownload complete\n", scroll: true}, surface.last(t))
}

func TestPureCoalesceLeavesScrollAlone(t *testing.T) {
	surface := &recordingSurface{}
	b := New(surface)
	b.LoadSnapshot("3.2 B/s\n")

	_, ok := b.ApplyStreamChunk("4.1 B/s")
	require.True(t, ok)
	require.Equal(t, []string{"4.1 B/s"}, b.Lines())
	require.Equal(t, renderCall{text: "4.1 B/s\n", scroll: false}, surface.last(t))
}

func TestSnapshotOnlyScrollsOnChange(t *testing.T) {
	surface := &recordingSurface{}
	b := New(surface)

	require.True(t, b.LoadSnapshot("a\nb\n"))
	require.Len(t, surface.calls, 1)
	require.True(t, surface.calls[0].scroll)

	require.False(t, b.LoadSnapshot("a\nb\n"))
	require.Len(t, surface.calls, 1)

	require.True(t, b.LoadSnapshot("a\nb\nc\n"))
	require.Len(t, surface.calls, 2)
	require.Equal(t, renderCall{text: "a\nb\nc\n", scroll: true}, surface.last(t))
}

func TestSnapshotComparesRenderedText(t *testing.T) {
	surface := &recordingSurface{}
	b := New(surface)
	b.LoadSnapshot("a\nb\n")

	// Same lines after normalization: no re-render.
	require.False(t, b.LoadSnapshot("a\r\n\r\nb"))
	require.Len(t, surface.calls, 1)
}

func TestEmptyChunkIsNoop(t *testing.T) {
	surface := &recordingSurface{}
	b := New(surface)
	b.LoadSnapshot("x\n")

	_, ok := b.ApplyStreamChunk("\n  \n")
	require.False(t, ok)
	require.Len(t, surface.calls, 1)
}

func TestProgressIntoEmptyBufferAppends(t *testing.T) {
	surface := &recordingSurface{}
	b := New(surface)

	res, ok := b.ApplyStreamChunk("1.5 MiB/s")
	require.True(t, ok)
	require.False(t, res.Coalesced())
	require.Equal(t, []string{"1.5 MiB/s"}, b.Lines())
	require.True(t, surface.last(t).scroll)
}

func TestBufferNeverHoldsBlankLines(t *testing.T) {
	b := New(nil)
	b.LoadSnapshot("\n\n a \n\n")
	b.ApplyStreamChunk(" \n b\n\n")
	b.ApplyStreamChunk("1 B/s\n\n2 B/s\n \n")
	for _, line := range b.Lines() {
		require.NotEmpty(t, strings.TrimSpace(line))
	}
	require.Equal(t, []string{"a", "b", "2 B/s"}, b.Lines())
}

func TestResetAlwaysRenders(t *testing.T) {
	surface := &recordingSurface{}
	b := New(surface)
	b.Reset("Cleared logs.")
	b.Reset("Cleared logs.")
	require.Len(t, surface.calls, 2)
	require.Equal(t, "Cleared logs.\n", b.Text())
}

func TestSurfaceFunc(t *testing.T) {
	var got string
	b := New(SurfaceFunc(func(text string, _ bool) { got = text }))
	b.LoadSnapshot("hello")
	require.Equal(t, "hello\n", got)
	require.Equal(t, 1, b.Len())
}
