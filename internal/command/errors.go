package command

import "errors"

// Rejection reasons for inbound command text. All of these are logged
// and the offending input dropped; none of them crash the process, and
// none of them are ever reported over the wire beyond the transport's
// OK/NO acknowledgment.
var (
	// ErrNotCommand is returned when the text does not match the
	// "(<json>, <signature>)" envelope at all.
	ErrNotCommand = errors.New("command: not a command envelope")

	// ErrBadPayload is returned when the JSON half fails to parse or
	// lacks a numeric time field.
	ErrBadPayload = errors.New("command: malformed payload")

	// ErrStaleCommand is returned when the embedded timestamp falls
	// outside the configured freshness window.
	ErrStaleCommand = errors.New("command: stale timestamp")
)
