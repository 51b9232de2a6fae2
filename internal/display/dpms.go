package display

import (
	"fmt"
	"os/exec"
	"strings"
)

// Logger is the logging interface the DPMS surface needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// DPMS controls display power through the X11 DPMS extension, shelling
// out to xset. Wayland is not supported; if the base distributions move
// to Wayland-only this needs a second implementation behind Power.
type DPMS struct {
	log       Logger
	supported bool

	// run is replaceable for tests.
	run func(args ...string) (string, error)
}

// NewDPMS probes DPMS support and configures the screensaver.
//
// On a capable display it disables the X screensaver and the DPMS
// standby/suspend/off timers, leaving power state entirely under the
// monitor's control. Probe failure is downgraded to an unsupported
// surface.
func NewDPMS(log Logger) *DPMS {
	d := &DPMS{log: log, run: runXset}
	d.probe()
	return d
}

func (d *DPMS) probe() {
	out, err := d.run("q")
	if err != nil || !strings.Contains(out, "DPMS") {
		d.log.Warn("display is not DPMS capable", "error", err)
		d.supported = false
		return
	}
	d.supported = true

	// Disable the screensaver and all DPMS timers; the state machine
	// decides when the screen blanks, not the X server.
	for _, args := range [][]string{
		{"s", "off"},
		{"+dpms"},
		{"dpms", "0", "0", "0"},
	} {
		if _, err := d.run(args...); err != nil {
			d.log.Warn("DPMS setup command failed", "args", args, "error", err)
		}
	}
}

// Supported reports whether the display accepted the DPMS probe.
func (d *DPMS) Supported() bool {
	return d.supported
}

// ForceOn turns the display on.
func (d *DPMS) ForceOn() error {
	return d.force("on")
}

// ForceOff blanks the display.
func (d *DPMS) ForceOff() error {
	return d.force("off")
}

func (d *DPMS) force(level string) error {
	if !d.supported {
		return nil
	}
	d.log.Debug("forcing display power", "level", level)
	if _, err := d.run("dpms", "force", level); err != nil {
		return fmt.Errorf("display: forcing %s: %w", level, err)
	}
	return nil
}

// runXset executes one xset command and returns its combined output.
func runXset(args ...string) (string, error) {
	out, err := exec.Command("xset", args...).CombinedOutput()
	return string(out), err
}
