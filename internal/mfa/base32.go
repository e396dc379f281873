package mfa

import (
	"encoding/base32"
	"strings"
)

// Authenticator apps expect unpadded uppercase RFC 4648 Base32
var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// EncodeBase32 encodes raw bytes as uppercase Base32 without padding
func EncodeBase32(data []byte) string {
	return b32.EncodeToString(data)
}

// DecodeBase32 decodes Base32 text back to raw bytes. Input may be lower
// case and may carry or omit trailing padding; round-trips with
// EncodeBase32 are lossless, including the empty string.
func DecodeBase32(s string) ([]byte, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimRight(s, "=")
	return b32.DecodeString(s)
}
