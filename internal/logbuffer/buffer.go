package logbuffer

import "sync"

// Surface displays the rendered buffer.
type Surface interface {
	Render(text string, scrollToBottom bool)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(text string, scrollToBottom bool)

func (f SurfaceFunc) Render(text string, scrollToBottom bool) { f(text, scrollToBottom) }

// Buffer holds the authoritative log panel content.
type Buffer struct {
	mu      sync.Mutex
	lines   []string
	surface Surface
}

// New returns an empty buffer rendering into surface. A nil surface is allowed.
func New(surface Surface) *Buffer {
	return &Buffer{surface: surface}
}

// Lines returns a copy of the current lines.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// Text returns the rendered content.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Render(b.lines)
}

// Len returns the number of lines.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// LoadSnapshot replaces the content with text when it differs from what
// is displayed. Returns true if the content changed.
func (b *Buffer) LoadSnapshot(text string) bool {
	next := SplitLines(text)

	b.mu.Lock()
	defer b.mu.Unlock()
	if Render(next) == Render(b.lines) {
		return false
	}
	b.lines = next
	b.renderLocked(true)
	return true
}

// ApplyStreamChunk merges one raw stream payload. The bool result is
// false when the chunk carried no lines and nothing happened.
func (b *Buffer) ApplyStreamChunk(raw string) (MergeResult, bool) {
	newLines := SplitLines(raw)
	if len(newLines) == 0 {
		return MergeResult{}, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	res := Merge(b.lines, newLines)
	b.lines = res.Lines
	b.renderLocked(res.ShouldScroll())
	return res, true
}

// Reset replaces the content unconditionally and scrolls to the bottom.
func (b *Buffer) Reset(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = SplitLines(text)
	b.renderLocked(true)
}

func (b *Buffer) renderLocked(scroll bool) {
	if b.surface == nil {
		return
	}
	b.surface.Render(Render(b.lines), scroll)
}
