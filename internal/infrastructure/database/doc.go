// Package database manages the SQLite connection backing the event
// journal.
//
// The monitor records commands, state transitions, and rotation events
// so an operator can reconstruct what the wall was doing after the
// fact. SQLite keeps that fully local: the monitor must work with no
// network beyond the camera streams and the broker.
package database
