package player

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMPV_ConfigureBuildsArgs(t *testing.T) {
	m := NewMPV("slot-0", "mpv", nil)
	err := m.Configure("50%x100%+0+0", "rtsp://cam/1", Tuning{
		NetworkTimeout: 10,
		Profile:        "low-latency",
		AudioOut:       "pulseaudio",
		ExtraArgs:      []string{"--mute=yes"},
	})
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	joined := strings.Join(m.args, " ")
	for _, want := range []string{
		"--no-border",
		"--keepaspect=no",
		"--geometry=50%x100%+0+0",
		"--ao=pulseaudio",
		"--profile=low-latency",
		"--network-timeout=10",
		"--mute=yes",
		"-- rtsp://cam/1",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args = %q, missing %q", joined, want)
		}
	}

	// URL must come last, after the option terminator.
	if m.args[len(m.args)-1] != "rtsp://cam/1" || m.args[len(m.args)-2] != "--" {
		t.Errorf("args must end with [-- url], got %v", m.args[len(m.args)-2:])
	}
}

func TestMPV_ConfigureRejectsEmptyInputs(t *testing.T) {
	m := NewMPV("slot-0", "mpv", nil)
	if err := m.Configure("", "rtsp://cam/1", Tuning{}); err == nil {
		t.Error("Configure with empty geometry expected error")
	}
	if err := m.Configure("100%x100%+0+0", "", Tuning{}); err == nil {
		t.Error("Configure with empty url expected error")
	}
}

func TestMPV_StartUnconfigured(t *testing.T) {
	m := NewMPV("slot-0", "mpv", nil)
	if err := m.Start(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Start() error = %v, want ErrNotConfigured", err)
	}
}

func TestMPV_WaitUntilPlaying_MarkerUnblocks(t *testing.T) {
	m := NewMPV("slot-0", "/bin/sh", nil)
	// The fake engine prints the playback marker and then idles like a
	// stream that keeps rendering.
	err := m.Configure("100%x100%+0+0", "ignored", Tuning{
		ExtraArgs: []string{"-c", `echo "VO: [gpu] 640x480"; sleep 30`},
	})
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	// Strip the standard mpv flags so /bin/sh only sees -c.
	m.args = m.args[3:]

	if err := m.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Kill()

	if err := m.WaitUntilPlaying(5 * time.Second); err != nil {
		t.Errorf("WaitUntilPlaying() error = %v", err)
	}
	if !m.IsAlive() {
		t.Error("IsAlive() = false while engine runs")
	}
}

func TestMPV_WaitUntilPlaying_EngineExit(t *testing.T) {
	m := NewMPV("slot-0", "/bin/sh", nil)
	if err := m.Configure("100%x100%+0+0", "ignored", Tuning{
		ExtraArgs: []string{"-c", "exit 2"},
	}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	m.args = m.args[3:]

	if err := m.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.WaitUntilPlaying(5 * time.Second); !errors.Is(err, ErrEngineExited) {
		t.Errorf("WaitUntilPlaying() error = %v, want ErrEngineExited", err)
	}
}

func TestMPV_WaitUntilPlaying_Timeout(t *testing.T) {
	m := NewMPV("slot-0", "/bin/sh", nil)
	if err := m.Configure("100%x100%+0+0", "ignored", Tuning{
		ExtraArgs: []string{"-c", "sleep 30"},
	}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	m.args = m.args[3:]

	if err := m.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Kill()

	if err := m.WaitUntilPlaying(200 * time.Millisecond); !errors.Is(err, ErrPlayTimeout) {
		t.Errorf("WaitUntilPlaying() error = %v, want ErrPlayTimeout", err)
	}
}
