// Package auth implements the shared-secret scheme that gates remote
// commands to the monitor.
//
// Secrets are distributed out-of-band as self-checking text tokens so an
// operator can validate a token client-side before first use, without a
// network round-trip. A token is the fixed prefix "magld_", the unpadded
// base64 secret body, and a six character unpadded base64 suffix holding
// the little-endian CRC-32 of the raw secret bytes.
//
// Commands are authenticated with HMAC-SHA256 over the message text,
// encoded as unpadded base64. Verification accepts any secret in the
// configured set, which allows secret rotation without synchronized
// invalidation: distribute a new token, keep the old one accepted until
// every sender has switched, then drop it.
package auth
