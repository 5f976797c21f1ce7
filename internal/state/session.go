package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Session is layout that lives only as long as the launching terminal.
type Session struct {
	// PanelHeight of 0 means the configured default.
	PanelHeight int `json:"panel_height,omitempty"`
	// ScrollOffset is nil when the panel should follow the tail.
	ScrollOffset *int `json:"scroll_offset,omitempty"`
}

// SessionStore keeps one Session file per terminal session key.
type SessionStore struct {
	path string
}

// SessionKey identifies the launching shell so a relaunch from the same
// terminal restores its layout.
func SessionKey() string {
	return fmt.Sprintf("ppid-%d", os.Getppid())
}

func NewSessionStore(dir, key string) *SessionStore {
	dir = strings.TrimSpace(dir)
	key = strings.TrimSpace(key)
	if dir == "" || key == "" {
		return &SessionStore{}
	}
	return &SessionStore{path: filepath.Join(dir, "session-"+key+".json")}
}

func (s *SessionStore) Path() string { return s.path }

// Load returns the zero Session when nothing was saved.
func (s *SessionStore) Load() (Session, error) {
	if s.path == "" {
		return Session{}, nil
	}
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, err
	}
	var out Session
	if len(payload) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return Session{}, fmt.Errorf("decode session %s: %w", s.path, err)
	}
	if out.PanelHeight < 0 {
		out.PanelHeight = 0
	}
	if out.ScrollOffset != nil && *out.ScrollOffset < 0 {
		out.ScrollOffset = nil
	}
	return out, nil
}

func (s *SessionStore) Save(sess Session) error {
	if s.path == "" {
		return nil
	}
	return writeAtomicJSON(s.path, sess)
}

// Clear removes the session file.
func (s *SessionStore) Clear() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
