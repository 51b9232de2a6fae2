package player

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MAGLaboratory/security-monitor/internal/process"
)

// voMarker is the prefix mpv prints when its video output is
// configured, which is the first reliable sign the stream is rendering.
const voMarker = "VO: "

// stopGrace is how long a graceful engine stop may take before the
// process group is killed.
const stopGrace = 5 * time.Second

// Logger is the logging interface the mpv player needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MPV drives an mpv subprocess configured to behave like a security
// monitor tile: borderless, aspect-ignoring, low-latency.
type MPV struct {
	name   string
	binary string
	log    Logger

	mu   sync.Mutex
	args []string
	sup  *process.Supervisor

	playing     chan struct{}
	playingOnce sync.Once
}

// NewMPV creates an unconfigured mpv player. binary is the mpv
// executable path; name identifies the owning slot in logs.
func NewMPV(name, binary string, log Logger) *MPV {
	return &MPV{
		name:    name,
		binary:  binary,
		log:     log,
		playing: make(chan struct{}),
	}
}

// NewFactory returns a Factory producing mpv players with the given
// binary and logger.
func NewFactory(binary string, log Logger) Factory {
	return func(name string) Player {
		return NewMPV(name, binary, log)
	}
}

// Configure builds the engine command line for a tile.
func (m *MPV) Configure(geometry, url string, tuning Tuning) error {
	if geometry == "" || url == "" {
		return fmt.Errorf("player %s: geometry and url are required", m.name)
	}

	args := []string{
		"--no-border",
		"--keepaspect=no",
		fmt.Sprintf("--geometry=%s", geometry),
	}
	if tuning.AudioOut != "" {
		args = append(args, fmt.Sprintf("--ao=%s", tuning.AudioOut))
	}
	if tuning.Profile != "" {
		args = append(args, fmt.Sprintf("--profile=%s", tuning.Profile))
	}
	if tuning.NetworkTimeout > 0 {
		args = append(args, fmt.Sprintf("--network-timeout=%d", tuning.NetworkTimeout))
	}
	args = append(args, tuning.ExtraArgs...)
	args = append(args, "--", url)

	m.mu.Lock()
	m.args = args
	m.mu.Unlock()
	return nil
}

// Start launches the engine process.
func (m *MPV) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.args == nil {
		return ErrNotConfigured
	}

	m.sup = process.New(process.Config{
		Name:            m.name,
		Binary:          m.binary,
		Args:            m.args,
		GracefulTimeout: stopGrace,
		OnOutput:        m.watchOutput,
	})
	m.sup.SetLogger(m.log)
	return m.sup.Start()
}

// watchOutput scans engine output for the playback marker.
func (m *MPV) watchOutput(line string) {
	if strings.HasPrefix(line, voMarker) {
		m.playingOnce.Do(func() { close(m.playing) })
	}
}

// WaitUntilPlaying blocks until playback starts, the engine exits, or
// the timeout elapses.
func (m *MPV) WaitUntilPlaying(timeout time.Duration) error {
	m.mu.Lock()
	sup := m.sup
	m.mu.Unlock()
	if sup == nil {
		return ErrNotConfigured
	}

	select {
	case <-m.playing:
		return nil
	case <-sup.Done():
		return fmt.Errorf("%w: %v", ErrEngineExited, sup.WaitErr())
	case <-time.After(timeout):
		return fmt.Errorf("%w: after %v", ErrPlayTimeout, timeout)
	}
}

// IsAlive reports whether the engine process is running.
func (m *MPV) IsAlive() bool {
	m.mu.Lock()
	sup := m.sup
	m.mu.Unlock()
	return sup != nil && sup.Alive()
}

// Stop tears the engine down, escalating to a kill after the grace
// period.
func (m *MPV) Stop() {
	m.mu.Lock()
	sup := m.sup
	m.mu.Unlock()
	if sup != nil {
		sup.Stop()
	}
}

// Kill terminates the engine immediately.
func (m *MPV) Kill() {
	m.mu.Lock()
	sup := m.sup
	m.mu.Unlock()
	if sup != nil {
		sup.Kill()
	}
}
