// Package command parses and dispatches authenticated remote-control
// messages.
//
// Both inbound transports (MQTT and UDP) deliver the same wire format: a
// single line of the form
//
//	(<json object>, <signature>)
//
// where the signature is an unpadded-base64 HMAC over the raw JSON
// substring. The JSON object carries an epoch-seconds "time" field that
// must fall inside a configured freshness window, then at most one of
// the recognized command fields, checked in precedence order: "restart",
// "auto", "force".
//
// A known limitation of the wire format: the JSON half and the signature
// are separated by the last ", " before the closing paren, with no
// escaping. A payload whose top level contains that exact substring
// outside nested strings parses ambiguously. Senders do not produce such
// payloads and the format is preserved as-is rather than growing an
// escaping scheme.
package command
