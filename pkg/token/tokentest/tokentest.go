// Package tokentest builds signed JWTs for tests.
package tokentest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Key is the HMAC key used for test tokens. Clients never verify it.
var Key = []byte("tokgate-test-signing-key")

// New returns an HS256 token that expires at exp with a fixed subject.
func New(t testing.TB, exp time.Time) string {
	t.Helper()
	return WithClaims(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
		"iat": exp.Add(-time.Hour).Unix(),
	})
}

// WithClaims signs arbitrary claims with HS256.
func WithClaims(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(Key)
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return signed
}
