// Package influxdb provides optional telemetry for the monitor.
//
// When enabled, state transitions, rotations, and engine failures are
// written to InfluxDB as batched, non-blocking points. Telemetry is
// best-effort: write failures are reported through a callback and never
// affect monitor operation.
package influxdb
