package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// NewRawToken returns an opaque random credential value (codes and bearer
// tokens) with 16 bytes of entropy, base64url-encoded.
func NewRawToken() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}
