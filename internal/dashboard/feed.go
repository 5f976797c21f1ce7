package dashboard

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/gdl-dash/internal/stream"
)

// Feed carries log renders and connection state from background goroutines
// into the bubbletea loop. It implements logbuffer.Surface.
type Feed struct {
	mu       sync.Mutex
	text     string
	hasText  bool
	scroll   bool
	state    stream.State
	hasState bool

	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewFeed() *Feed {
	return &Feed{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Render records the latest text. Scroll requests accumulate until the
// model takes them.
func (f *Feed) Render(text string, scrollToBottom bool) {
	f.mu.Lock()
	f.text = text
	f.hasText = true
	f.scroll = f.scroll || scrollToBottom
	f.mu.Unlock()
	f.signal()
}

// SetState records a connection state change.
func (f *Feed) SetState(s stream.State) {
	f.mu.Lock()
	f.state = s
	f.hasState = true
	f.mu.Unlock()
	f.signal()
}

func (f *Feed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

func (f *Feed) signal() {
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

type feedUpdate struct {
	text     string
	hasText  bool
	scroll   bool
	state    stream.State
	hasState bool
}

func (f *Feed) take() feedUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := feedUpdate{
		text:     f.text,
		hasText:  f.hasText,
		scroll:   f.scroll,
		state:    f.state,
		hasState: f.hasState,
	}
	f.hasText = false
	f.scroll = false
	f.hasState = false
	return out
}

type feedMsg struct{}

func waitForFeedCmd(f *Feed) tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-f.notify:
			return feedMsg{}
		case <-f.done:
			return nil
		}
	}
}
