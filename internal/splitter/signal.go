package splitter

import (
	"sync"
	"time"
)

// Signal is a one-shot broadcast latch. Setting it wakes every current
// and future waiter; it cannot be reset. The state machine creates a
// fresh Signal for each playback epoch.
type Signal struct {
	once sync.Once
	ch   chan struct{}
}

// NewSignal creates an unset Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Set latches the signal. Safe to call from any goroutine, any number
// of times.
func (s *Signal) Set() {
	s.once.Do(func() { close(s.ch) })
}

// IsSet reports whether the signal has been latched.
func (s *Signal) IsSet() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the signal is set.
func (s *Signal) Done() <-chan struct{} {
	return s.ch
}

// Wait blocks until the signal is set or the timeout elapses, and
// reports whether the signal was set.
func (s *Signal) Wait(timeout time.Duration) bool {
	select {
	case <-s.ch:
		return true
	case <-time.After(timeout):
		return false
	}
}
