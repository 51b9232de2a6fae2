// Package logging provides structured logging for the security monitor.
//
// It wraps the standard log/slog package so every component logs with
// consistent fields and configurable level/format/output.
//
// Logging is configured via the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log secrets or decoded tokens. Commands may be logged in full
// because their payloads carry no secret material, only a signature.
package logging
