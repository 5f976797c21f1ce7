// Package stream manages the live log websocket and its reconnection policy.
package stream

import "sync/atomic"

// State is the lifecycle state of a Connection.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Lifetime is true from creation until End is called, then false forever.
// It gates every reconnect attempt.
type Lifetime struct {
	ended atomic.Bool
}

// NewLifetime returns a live Lifetime.
func NewLifetime() *Lifetime {
	return &Lifetime{}
}

// Alive reports whether End has not been called yet.
func (l *Lifetime) Alive() bool {
	return !l.ended.Load()
}

// End marks the lifetime over. It is safe to call more than once.
func (l *Lifetime) End() {
	l.ended.Store(true)
}
