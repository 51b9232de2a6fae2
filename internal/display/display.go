// Package display abstracts the display power control surface.
//
// Power control is best-effort: a monitor without a controllable
// display (or running headless under a test) still plays video, it just
// cannot blank the screen. Absence of support is logged once at
// startup, never fatal.
package display

// Power is the display power control surface.
//
// Implementations must be idempotent: forcing an already-on display on
// is a no-op.
type Power interface {
	// Supported reports whether power control is available.
	Supported() bool

	// ForceOn turns the display on.
	ForceOn() error

	// ForceOff blanks the display.
	ForceOff() error
}

// Noop is a Power implementation for displays without power control.
type Noop struct{}

// Supported always reports false.
func (Noop) Supported() bool { return false }

// ForceOn does nothing.
func (Noop) ForceOn() error { return nil }

// ForceOff does nothing.
func (Noop) ForceOff() error { return nil }
