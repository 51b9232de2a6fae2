// Package udp implements the datagram command listener.
//
// The listener accepts single-datagram commands on a bound UDP socket,
// hands the decoded text to a handler, and replies "OK" or "NO"
// depending on whether the handler accepted the command. Datagrams are
// capped at 1024 bytes; anything longer is truncated by the socket
// read and will fail command parsing downstream.
//
// The read loop polls with a one second deadline so Stop never waits
// longer than a single poll interval for the goroutine to exit.
package udp
