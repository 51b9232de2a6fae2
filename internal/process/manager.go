package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// maxOutputLine caps the length of captured output lines.
const maxOutputLine = 64 * 1024

// Logger defines the logging interface for the process supervisor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Config holds configuration for a supervised subprocess.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the path to the executable.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// GracefulTimeout is how long Stop waits after SIGTERM before
	// escalating to SIGKILL.
	GracefulTimeout time.Duration

	// OnOutput, if set, is called with each line of combined
	// stdout/stderr output. Called from the capture goroutines.
	OnOutput func(line string)

	// OnExit, if set, is called exactly once when the process exits,
	// with the wait error (nil for a clean exit).
	OnExit func(err error)
}

// Supervisor manages the lifecycle of one subprocess.
type Supervisor struct {
	config Config
	logger Logger

	mu      sync.RWMutex
	cmd     *exec.Cmd
	started bool
	exited  bool
	waitErr error

	// done is closed when the process has exited and been reaped.
	done chan struct{}
}

// New creates a supervisor with the given configuration.
func New(cfg Config) *Supervisor {
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = 5 * time.Second
	}
	return &Supervisor{
		config: cfg,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the supervisor.
func (s *Supervisor) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Start launches the subprocess and begins reaping and output capture.
// It may be called at most once per Supervisor.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("process %s already started", s.config.Name)
	}

	cmd := exec.Command(s.config.Binary, s.config.Args...)

	// Own process group, so the whole engine tree can be signalled.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", s.config.Name, err)
	}

	s.cmd = cmd
	s.started = true
	s.done = make(chan struct{})

	s.logger.Info("process started",
		"name", s.config.Name,
		"pid", cmd.Process.Pid,
	)

	var capture sync.WaitGroup
	capture.Add(2)
	go s.captureOutput("stdout", stdout, &capture)
	go s.captureOutput("stderr", stderr, &capture)

	go func() {
		// Drain output before Wait closes the pipes underneath the
		// scanners.
		capture.Wait()
		err := cmd.Wait()

		s.mu.Lock()
		s.exited = true
		s.waitErr = err
		s.mu.Unlock()

		s.logger.Debug("process exited", "name", s.config.Name, "error", err)
		if s.config.OnExit != nil {
			s.config.OnExit(err)
		}
		close(s.done)
	}()

	return nil
}

// captureOutput reads one stream line by line and forwards it.
func (s *Supervisor) captureOutput(stream string, r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxOutputLine)
	for scanner.Scan() {
		line := scanner.Text()
		s.logger.Debug("process output",
			"name", s.config.Name,
			"stream", stream,
			"line", line,
		)
		if s.config.OnOutput != nil {
			s.config.OnOutput(line)
		}
	}
}

// Alive reports whether the process has started and not yet exited.
func (s *Supervisor) Alive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started && !s.exited
}

// PID returns the process ID, or 0 before Start.
func (s *Supervisor) PID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cmd != nil && s.cmd.Process != nil {
		return s.cmd.Process.Pid
	}
	return 0
}

// WaitErr returns the error from reaping the process, once exited.
func (s *Supervisor) WaitErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.waitErr
}

// Done returns a channel closed when the process has exited.
// Returns nil before Start.
func (s *Supervisor) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

// Stop terminates the process group: SIGTERM, a bounded wait, then
// SIGKILL. Safe to call on an already-exited process.
func (s *Supervisor) Stop() {
	s.mu.RLock()
	cmd := s.cmd
	done := s.done
	s.mu.RUnlock()

	if cmd == nil || cmd.Process == nil || done == nil {
		return
	}

	pid := cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		if !errors.Is(err, syscall.ESRCH) {
			s.logger.Warn("failed to signal process group",
				"name", s.config.Name, "error", err)
		}
	}

	select {
	case <-done:
		return
	case <-time.After(s.config.GracefulTimeout):
		s.logger.Warn("graceful shutdown timeout, killing",
			"name", s.config.Name,
			"timeout", s.config.GracefulTimeout,
		)
	}

	s.Kill()
	<-done
}

// Kill sends SIGKILL to the process group immediately.
func (s *Supervisor) Kill() {
	s.mu.RLock()
	cmd := s.cmd
	s.mu.RUnlock()

	if cmd == nil || cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		if !errors.Is(err, syscall.ESRCH) {
			s.logger.Warn("failed to kill process group",
				"name", s.config.Name, "error", err)
		}
	}
}
