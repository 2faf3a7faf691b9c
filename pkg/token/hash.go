package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintLength is the number of hex characters kept by Fingerprint.
const fingerprintLength = 12

// Hash computes the hex encoded SHA-256 hash of a token.
func Hash(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// Fingerprint returns a short digest identifying a token in logs.
// An empty token yields "".
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return Hash(token)[:fingerprintLength]
}

// GenerateBytes generates cryptographically secure random bytes.
func GenerateBytes(length int) ([]byte, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return nil, err
	}
	return bytes, nil
}
