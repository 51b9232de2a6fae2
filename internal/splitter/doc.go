// Package splitter implements the rotating worker-slot scheduler that
// drives the video wall.
//
// A division of N visible tiles is backed by 2N worker slots. At any
// moment N slots are live and N are standby; the roles alternate as the
// rotation cursor walks the ring. A rotation starts a fresh player in
// the standby slot opposite the cursor and retires the cursor's player
// only after the replacement has reported ready or definitively failed,
// so a visible tile is never blank during a refresh.
//
// A player whose engine dies on its own is treated as fatal to the
// whole scheduler instance, not just to its slot: an engine crash is
// assumed correlated with a resource or environment fault that would
// recur. The worker escalates through the shared stop Signal and the
// top-level state machine restarts playback fresh.
package splitter
