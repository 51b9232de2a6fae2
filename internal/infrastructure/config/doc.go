// Package config loads and validates the monitor's YAML configuration.
//
// Configuration is read once at startup and treated as read-only
// thereafter. Secrets (MQTT password, telemetry token) can be injected
// through SECMON_* environment variables instead of the file.
package config
