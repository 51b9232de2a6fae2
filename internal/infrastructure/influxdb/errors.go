package influxdb

import "errors"

var (
	// ErrDisabled is returned when connecting with telemetry disabled
	// in configuration.
	ErrDisabled = errors.New("influxdb: telemetry disabled in configuration")

	// ErrConnectionFailed is returned when the server cannot be
	// reached at startup.
	ErrConnectionFailed = errors.New("influxdb: connection failed")
)
