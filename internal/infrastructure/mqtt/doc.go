// Package mqtt wraps paho.mqtt.golang for the security monitor.
//
// It provides connection management with automatic reconnection,
// subscription tracking (restored on reconnect), panic-recovering
// message handlers, and a Last Will and Testament so other services can
// tell a crashed monitor from a gracefully stopped one.
//
// The monitor subscribes to a checkup-request topic, its own command
// topic, and one or more motion event topics; handlers for those are
// registered by the caller, not baked into this package.
package mqtt
