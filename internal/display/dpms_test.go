package display

import (
	"errors"
	"testing"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Warn(string, ...any)  {}

// newTestDPMS builds a DPMS surface with a scripted xset.
func newTestDPMS(run func(args ...string) (string, error)) *DPMS {
	d := &DPMS{log: testLogger{}, run: run}
	d.probe()
	return d
}

func TestDPMS_ProbeCapable(t *testing.T) {
	var calls [][]string
	d := newTestDPMS(func(args ...string) (string, error) {
		calls = append(calls, args)
		if args[0] == "q" {
			return "DPMS (Energy Star):\n  Standby: 0", nil
		}
		return "", nil
	})

	if !d.Supported() {
		t.Fatal("Supported() = false for a DPMS-capable display")
	}
	// Probe must disable the screensaver and zero the DPMS timers.
	if len(calls) != 4 {
		t.Errorf("xset calls = %d, want 4 (query + 3 setup)", len(calls))
	}
}

func TestDPMS_ProbeIncapable(t *testing.T) {
	d := newTestDPMS(func(args ...string) (string, error) {
		return "no dpms here", nil
	})
	if d.Supported() {
		t.Error("Supported() = true for a non-DPMS display")
	}
	// Force calls on an unsupported surface are silent no-ops.
	if err := d.ForceOff(); err != nil {
		t.Errorf("ForceOff() error = %v on unsupported display", err)
	}
}

func TestDPMS_ProbeCommandFailure(t *testing.T) {
	d := newTestDPMS(func(args ...string) (string, error) {
		return "", errors.New("no X server")
	})
	if d.Supported() {
		t.Error("Supported() = true when xset fails")
	}
}

func TestDPMS_ForceOnOff(t *testing.T) {
	var forced []string
	d := newTestDPMS(func(args ...string) (string, error) {
		if args[0] == "q" {
			return "DPMS is Enabled", nil
		}
		if args[0] == "dpms" && len(args) == 3 && args[1] == "force" {
			forced = append(forced, args[2])
		}
		return "", nil
	})

	if err := d.ForceOn(); err != nil {
		t.Errorf("ForceOn() error = %v", err)
	}
	if err := d.ForceOff(); err != nil {
		t.Errorf("ForceOff() error = %v", err)
	}
	if len(forced) != 2 || forced[0] != "on" || forced[1] != "off" {
		t.Errorf("forced levels = %v, want [on off]", forced)
	}
}

func TestNoop(t *testing.T) {
	var p Power = Noop{}
	if p.Supported() {
		t.Error("Noop.Supported() = true")
	}
	if err := p.ForceOn(); err != nil {
		t.Errorf("Noop.ForceOn() error = %v", err)
	}
	if err := p.ForceOff(); err != nil {
		t.Errorf("Noop.ForceOff() error = %v", err)
	}
}
