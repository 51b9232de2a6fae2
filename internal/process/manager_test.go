package process

import (
	"sync"
	"testing"
	"time"
)

func TestSupervisor_StartAndExit(t *testing.T) {
	var mu sync.Mutex
	var lines []string
	exited := make(chan error, 1)

	s := New(Config{
		Name:   "echo",
		Binary: "/bin/sh",
		Args:   []string{"-c", "echo one; echo two"},
		OnOutput: func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		},
		OnExit: func(err error) { exited <- err },
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case err := <-exited:
		if err != nil {
			t.Errorf("OnExit error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}

	<-s.Done()
	if s.Alive() {
		t.Error("Alive() = true after exit")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("captured lines = %v, want [one two]", lines)
	}
}

func TestSupervisor_StopTerminatesProcess(t *testing.T) {
	s := New(Config{
		Name:            "sleeper",
		Binary:          "/bin/sh",
		Args:            []string{"-c", "sleep 60"},
		GracefulTimeout: 2 * time.Second,
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.Alive() {
		t.Fatal("Alive() = false after Start")
	}

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Stop() did not return")
	}
	if s.Alive() {
		t.Error("Alive() = true after Stop")
	}
}

func TestSupervisor_KillUncatchableProcess(t *testing.T) {
	// The shell traps SIGTERM, so Stop must escalate to SIGKILL.
	s := New(Config{
		Name:            "stubborn",
		Binary:          "/bin/sh",
		Args:            []string{"-c", "trap '' TERM; sleep 60"},
		GracefulTimeout: 500 * time.Millisecond,
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Stop() did not escalate to SIGKILL")
	}
}

func TestSupervisor_DoubleStartFails(t *testing.T) {
	s := New(Config{Name: "true", Binary: "/bin/true"})
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start() expected error, got nil")
	}
	<-s.Done()
}

func TestSupervisor_StartMissingBinary(t *testing.T) {
	s := New(Config{Name: "missing", Binary: "/nonexistent/binary"})
	if err := s.Start(); err == nil {
		t.Error("Start() expected error for missing binary, got nil")
	}
	if s.Alive() {
		t.Error("Alive() = true after failed Start")
	}
}
