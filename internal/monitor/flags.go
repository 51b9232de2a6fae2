package monitor

import "sync/atomic"

// Flags are the three process-lifetime control signals shared between
// the command handlers, the idle timer, and the state machine. Each
// flag has a single writer role at a time; atomics cover the
// cross-goroutine reads.
type Flags struct {
	auto      atomic.Bool
	motion    atomic.Bool
	screenOff atomic.Bool
}

// NewFlags creates the flag set with automatic control enabled.
func NewFlags() *Flags {
	f := &Flags{}
	f.auto.Store(true)
	return f
}

// AutoEnabled reports whether automatic idle control is active.
func (f *Flags) AutoEnabled() bool {
	return f.auto.Load()
}

// SetAuto enables or disables automatic idle control.
func (f *Flags) SetAuto(on bool) {
	f.auto.Store(on)
}

// TriggerMotion latches a motion event for the idle timer.
func (f *Flags) TriggerMotion() {
	f.motion.Store(true)
}

// TakeMotion reads and clears the motion latch.
func (f *Flags) TakeMotion() bool {
	return f.motion.Swap(false)
}

// ScreenOff reports whether the display should be blanked.
func (f *Flags) ScreenOff() bool {
	return f.screenOff.Load()
}

// SetScreenOff sets the display blanking intent.
func (f *Flags) SetScreenOff(off bool) {
	f.screenOff.Store(off)
}
