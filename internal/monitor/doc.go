// Package monitor implements the top-level state machine that owns the
// display.
//
// The monitor flips between PLAYING and STOPPED, running one splitter
// instance per PLAYING epoch and driving the display power surface on
// the transitions. Remote commands, the idle timer, and process
// signals all converge on three shared flags and a per-epoch stop
// signal; the control loop itself is single-threaded.
package monitor
