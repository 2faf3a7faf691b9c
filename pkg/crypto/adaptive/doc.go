// Package adaptive encrypts small secrets at rest.
//
// The cipher is picked from the platform: AES-256-GCM where Go uses
// hardware AES (amd64, arm64), ChaCha20-Poly1305 elsewhere. Both are AEAD
// and prefix the random nonce to the ciphertext.
//
// Keys come either from a random master key narrowed per purpose with
// HKDF (DeriveKey) or from a passphrase stretched with Argon2id
// (KeyFromPassphrase). A Sealer binds a cipher to associated data and
// produces base64 strings that fit in YAML or a Redis value:
//
//	key, _ := adaptive.DeriveKey(master, "tokgate/session")
//	s, _ := adaptive.NewSealer(key, "", []byte("session/v1"))
//	sealed, _ := s.Seal("eyJhbGciOi...")
//	token, _ := s.Open(sealed)
package adaptive
