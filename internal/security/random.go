package security

import (
	"crypto/rand"
	"encoding/base64"
)

// NewRandomString returns n bytes of crypto/rand entropy, base64url
// encoded without padding. Used for single-use token values.
func NewRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
