package token

import (
	"crypto/rand"
	"encoding/hex"
)

// Length is the number of hex characters in a confirm key.
const Length = 32

// New returns a fresh random confirm key. Keys are never derived from
// subscriber data, so possession of a key proves receipt of the email that
// carried it.
func New() (string, error) {
	buf := make([]byte, Length/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
