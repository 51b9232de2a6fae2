package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Sign computes the HMAC-SHA256 signature of message keyed by secret,
// encoded as unpadded base64. This matches the signature format carried
// in a command envelope.
func Sign(message string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(message))
	return base64.RawStdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks a detached signature against every accepted secret and
// succeeds if any of them matches. Returns ErrNoSecrets when the set is
// empty and ErrAuthFailure when no secret authenticates the message.
func Verify(message, signature string, secrets [][]byte) error {
	if len(secrets) == 0 {
		return ErrNoSecrets
	}
	for _, secret := range secrets {
		if hmac.Equal([]byte(Sign(message, secret)), []byte(signature)) {
			return nil
		}
	}
	return ErrAuthFailure
}
