package adaptive

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the size of every derived key.
	KeySize = 32

	// MinMasterKeySize is the smallest master key DeriveKey accepts.
	MinMasterKeySize = 16

	// SaltSize is the Argon2id salt size.
	SaltSize = 16

	// MinPassphraseSize is the shortest passphrase accepted.
	MinPassphraseSize = 8

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// Key derivation errors.
var (
	ErrKeyTooShort        = errors.New("adaptive: master key too short")
	ErrPassphraseTooShort = errors.New("adaptive: passphrase too short")
	ErrBadSalt            = errors.New("adaptive: salt has wrong size")
)

// DeriveKey derives a purpose-bound key from master with HKDF-SHA256.
func DeriveKey(master []byte, info string) ([]byte, error) {
	if len(master) < MinMasterKeySize {
		return nil, ErrKeyTooShort
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("adaptive: derive key: %w", err)
	}
	return key, nil
}

// NewSalt returns a random Argon2id salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("adaptive: salt: %w", err)
	}
	return salt, nil
}

// KeyFromPassphrase stretches passphrase with Argon2id. The same salt
// must be kept to derive the key again.
func KeyFromPassphrase(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) < MinPassphraseSize {
		return nil, ErrPassphraseTooShort
	}
	if len(salt) != SaltSize {
		return nil, ErrBadSalt
	}
	return argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, KeySize), nil
}

// Zero overwrites key.
func Zero(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
