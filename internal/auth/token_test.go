package auth

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDecodeToken_RoundTrip(t *testing.T) {
	secrets := [][]byte{
		[]byte("aa"),
		[]byte("shared-secret"),
		[]byte("a much longer secret with spaces and \x00 bytes \xff"),
		bytes.Repeat([]byte{0x5a}, 64),
	}

	for _, secret := range secrets {
		token := EncodeToken(secret)
		got, err := DecodeToken(token)
		if err != nil {
			t.Fatalf("DecodeToken(%q) error = %v", token, err)
		}
		if !bytes.Equal(got, secret) {
			t.Errorf("DecodeToken(EncodeToken(%q)) = %q", secret, got)
		}
	}
}

func TestDecodeToken_TrailingWhitespace(t *testing.T) {
	token := EncodeToken([]byte("secret")) + " \t\r\n"
	got, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("DecodeToken error = %v", err)
	}
	if string(got) != "secret" {
		t.Errorf("DecodeToken = %q, want %q", got, "secret")
	}
}

func TestDecodeToken_PrefixCaseInsensitive(t *testing.T) {
	token := EncodeToken([]byte("secret"))
	upper := "MAGLD_" + token[len("magld_"):]
	if _, err := DecodeToken(upper); err != nil {
		t.Errorf("DecodeToken with uppercase prefix error = %v", err)
	}
}

func TestDecodeToken_Invalid(t *testing.T) {
	valid := EncodeToken([]byte("secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"too short", "magld_xx"},
		{"wrong prefix", "nope__" + valid[len("magld_"):]},
		{"corrupt body", "magld_!!notbase64!!" + valid[len(valid)-6:]},
		{"corrupt checksum", valid[:len(valid)-6] + "AAAAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("DecodeToken(%q) error = %v, want ErrInvalidToken", tt.token, err)
			}
		})
	}
}

func TestDecodeToken_ChecksumCoversBody(t *testing.T) {
	// Swapping the body for another valid base64 string of the same
	// length must fail the checksum.
	token := EncodeToken([]byte("secret"))
	tampered := "magld_" + strings.Repeat("A", len(token)-len("magld_")-6) + token[len(token)-6:]
	if _, err := DecodeToken(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("DecodeToken(tampered) error = %v, want ErrInvalidToken", err)
	}
}

func TestDecodeTokens_SkipsBadEntries(t *testing.T) {
	good := EncodeToken([]byte("first"))
	good2 := EncodeToken([]byte("second"))
	secrets, rejected := DecodeTokens([]string{good, "garbage", good2})
	if rejected != 1 {
		t.Errorf("rejected = %d, want 1", rejected)
	}
	if len(secrets) != 2 {
		t.Fatalf("len(secrets) = %d, want 2", len(secrets))
	}
	if string(secrets[0]) != "first" || string(secrets[1]) != "second" {
		t.Errorf("secrets = %q, order not preserved", secrets)
	}
}
