// Package process provides subprocess lifecycle management for the
// rendering engines.
//
// Each display worker owns one engine subprocess. The supervisor starts
// it in its own process group, captures its output line by line, and
// tears it down with SIGTERM followed by SIGKILL after a bounded grace
// period. There is no restart-on-failure here: an engine that dies on
// its own is reported upward, where the scheduler treats it as fatal to
// the whole instance.
package process
