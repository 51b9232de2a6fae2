package auth

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strings"
	"unicode"
)

// Token format constants.
const (
	// tokenPrefix is the fixed ASCII prefix on every distributed token.
	tokenPrefix = "magld_"

	// minBodyLen is the minimum length of the base64 secret body.
	minBodyLen = 2

	// crcLen is the length of the unpadded base64 CRC-32 suffix
	// (4 bytes always encode to 6 characters).
	crcLen = 6
)

// DecodeToken validates a distributed token and returns the raw secret
// bytes it carries.
//
// The token is trimmed of trailing whitespace first. Validation checks,
// in order: overall length, the "magld_" prefix (case-insensitive), body
// base64 decodability, and the CRC-32 checksum suffix. Any failure
// returns ErrInvalidToken; decode failures drop that token without
// affecting the rest of startup.
func DecodeToken(text string) ([]byte, error) {
	token := strings.TrimRightFunc(text, unicode.IsSpace)

	if len(token) < len(tokenPrefix)+minBodyLen+crcLen {
		return nil, fmt.Errorf("%w: too short", ErrInvalidToken)
	}
	if !strings.EqualFold(token[:len(tokenPrefix)], tokenPrefix) {
		return nil, fmt.Errorf("%w: bad prefix", ErrInvalidToken)
	}

	body := token[len(tokenPrefix) : len(token)-crcLen]
	secret, err := base64.RawStdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: body is not base64: %v", ErrInvalidToken, err)
	}

	if checksum(secret) != token[len(token)-crcLen:] {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidToken)
	}

	return secret, nil
}

// EncodeToken builds the distributable token text for a raw secret.
// DecodeToken(EncodeToken(secret)) returns the secret unchanged.
func EncodeToken(secret []byte) string {
	return tokenPrefix + base64.RawStdEncoding.EncodeToString(secret) + checksum(secret)
}

// checksum computes the unpadded base64, little-endian CRC-32 suffix.
//
// Little-endian byte order is kept for compatibility with the encoding
// schemes used by other well-known token formats.
func checksum(secret []byte) string {
	var sum [4]byte
	binary.LittleEndian.PutUint32(sum[:], crc32.ChecksumIEEE(secret))
	return base64.RawStdEncoding.EncodeToString(sum[:])
}

// DecodeTokens decodes a list of token texts, skipping any that fail
// validation. The returned slice preserves the input ordering of the
// tokens that decoded successfully.
func DecodeTokens(tokens []string) (secrets [][]byte, rejected int) {
	for _, t := range tokens {
		secret, err := DecodeToken(t)
		if err != nil {
			rejected++
			continue
		}
		secrets = append(secrets, secret)
	}
	return secrets, rejected
}
