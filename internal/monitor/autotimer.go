package monitor

import (
	"sync"
	"time"
)

// defaultIdleTicks is how many idle ticks pass before the display is
// blanked when no timeout is configured.
const defaultIdleTicks = 900

// AutoTimer blanks the display after a period without motion and wakes
// it when motion returns, while automatic control is enabled.
//
// One tick per interval: a motion event resets the idle counter and
// requests power-on; the counter reaching the timeout requests
// power-off; re-enabling automatic control requests power-on once to
// resynchronize. Both actions must be idempotent.
type AutoTimer struct {
	flags    *Flags
	timeout  int
	interval time.Duration
	on       func()
	off      func()

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewAutoTimer creates the idle timer. timeout is in ticks; zero or
// negative selects the default. on and off are the power intents.
func NewAutoTimer(flags *Flags, timeout int, on, off func()) *AutoTimer {
	if timeout <= 0 {
		timeout = defaultIdleTicks
	}
	return &AutoTimer{
		flags:    flags,
		timeout:  timeout,
		interval: 1 * time.Second,
		on:       on,
		off:      off,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the timer loop.
func (a *AutoTimer) Start() {
	go a.loop()
}

// Stop halts the timer and waits for the loop to exit.
func (a *AutoTimer) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
	<-a.done
}

func (a *AutoTimer) loop() {
	defer close(a.done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	counter := 0
	lastAuto := a.flags.AutoEnabled()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
		}

		motion := a.flags.TakeMotion()
		auto := a.flags.AutoEnabled()

		if auto {
			if motion {
				counter = 0
				a.on()
			}
			if !lastAuto {
				// Automatic control just resumed; resynchronize.
				a.on()
			}
		}

		if counter < a.timeout {
			counter++
		}
		if auto && counter >= a.timeout {
			a.off()
		}

		lastAuto = auto
	}
}
