package player

import (
	"errors"
	"time"
)

// Sentinel errors for engine lifecycle failures.
var (
	// ErrNotConfigured is returned when Start is called before
	// Configure.
	ErrNotConfigured = errors.New("player: not configured")

	// ErrPlayTimeout is returned when the engine does not reach the
	// playing state within the wait timeout.
	ErrPlayTimeout = errors.New("player: timed out waiting for playback")

	// ErrEngineExited is returned when the engine process exits before
	// reaching the playing state.
	ErrEngineExited = errors.New("player: engine exited before playback")
)

// Tuning carries engine options the supervisor passes through without
// interpreting.
type Tuning struct {
	// NetworkTimeout is the engine's stream network timeout in seconds.
	NetworkTimeout int

	// Profile is the engine playback profile, e.g. "low-latency".
	Profile string

	// AudioOut selects the engine audio output driver.
	AudioOut string

	// ExtraArgs are appended verbatim to the engine command line.
	ExtraArgs []string
}

// Player is the handle a display worker holds on one rendering engine.
//
// The zero lifecycle is Configure, Start, WaitUntilPlaying, then Stop.
// All blocking calls carry explicit timeouts; Stop and Kill are safe on
// an engine that already exited.
type Player interface {
	// Configure binds the engine to a tile geometry and stream URL.
	Configure(geometry, url string, tuning Tuning) error

	// Start launches the engine.
	Start() error

	// WaitUntilPlaying blocks until the engine reports playback, the
	// engine dies, or the timeout elapses.
	WaitUntilPlaying(timeout time.Duration) error

	// IsAlive reports whether the engine process is still running.
	IsAlive() bool

	// Stop tears the engine down gracefully, escalating to a kill
	// after a bounded grace period.
	Stop()

	// Kill terminates the engine immediately.
	Kill()
}

// Factory creates a Player for a worker. The name is a slot identifier
// used for logging.
type Factory func(name string) Player
