package monitor

import (
	"sync/atomic"
	"testing"
	"time"
)

func newTestTimer(flags *Flags, timeout int, on, off *atomic.Int32) *AutoTimer {
	a := NewAutoTimer(flags, timeout,
		func() { on.Add(1) },
		func() { off.Add(1) },
	)
	a.interval = 5 * time.Millisecond
	return a
}

func TestAutoTimer_BlanksAfterTimeout(t *testing.T) {
	flags := NewFlags()
	var on, off atomic.Int32
	a := newTestTimer(flags, 3, &on, &off)
	a.Start()
	defer a.Stop()

	waitFor(t, time.Second, func() bool { return off.Load() >= 1 })
	if on.Load() != 0 {
		t.Errorf("on invoked %d times without motion", on.Load())
	}
}

func TestAutoTimer_MotionResetsAndWakes(t *testing.T) {
	flags := NewFlags()
	var on, off atomic.Int32
	a := newTestTimer(flags, 1000, &on, &off)
	a.Start()
	defer a.Stop()

	flags.TriggerMotion()
	waitFor(t, time.Second, func() bool { return on.Load() >= 1 })
	if off.Load() != 0 {
		t.Errorf("off invoked %d times before timeout", off.Load())
	}
	if flags.TakeMotion() {
		t.Error("motion latch not cleared by the timer")
	}
}

func TestAutoTimer_DisabledIgnoresMotionAndTimeout(t *testing.T) {
	flags := NewFlags()
	flags.SetAuto(false)
	var on, off atomic.Int32
	a := newTestTimer(flags, 2, &on, &off)
	a.Start()
	defer a.Stop()

	flags.TriggerMotion()
	time.Sleep(100 * time.Millisecond)
	if on.Load() != 0 || off.Load() != 0 {
		t.Errorf("actions invoked while auto disabled: on=%d off=%d", on.Load(), off.Load())
	}
}

func TestAutoTimer_ReenableResynchronizes(t *testing.T) {
	flags := NewFlags()
	flags.SetAuto(false)
	var on, off atomic.Int32
	a := newTestTimer(flags, 100000, &on, &off)
	a.Start()
	defer a.Stop()

	// Let at least one tick observe the disabled state.
	time.Sleep(30 * time.Millisecond)
	flags.SetAuto(true)

	// The enable edge requests power-on once even without motion.
	waitFor(t, time.Second, func() bool { return on.Load() >= 1 })
	if off.Load() != 0 {
		t.Errorf("off invoked %d times", off.Load())
	}
}

func TestAutoTimer_StopHalts(t *testing.T) {
	flags := NewFlags()
	var on, off atomic.Int32
	a := newTestTimer(flags, 100000, &on, &off)
	a.Start()

	stopped := make(chan struct{})
	go func() {
		a.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
