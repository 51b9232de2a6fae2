// Package journal records monitor events in the SQLite journal.
//
// The journal is an append-mostly audit trail: authenticated commands,
// state transitions, rotations, and engine failures. Writes are
// best-effort from the caller's point of view; a journal failure is
// logged and never interrupts playback.
package journal
