package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// ErrCiphertextTooShort is returned when the input cannot hold a nonce.
var ErrCiphertextTooShort = errors.New("adaptive: ciphertext too short")

// Cipher provides authenticated encryption.
type Cipher interface {
	Type() CipherType

	// Encrypt returns nonce || ciphertext || tag.
	Encrypt(plaintext, additionalData []byte) ([]byte, error)

	Decrypt(ciphertext, additionalData []byte) ([]byte, error)

	NonceSize() int
	Overhead() int
}

// New picks the preferred cipher for this platform.
func New(key []byte) (Cipher, error) {
	return NewWithType(key, Preferred())
}

// Preferred returns the cipher type New would use.
func Preferred() CipherType {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return CipherAESGCM
	default:
		return CipherChaCha20
	}
}

// ParseType maps a config value to a CipherType. Empty means Preferred.
func ParseType(s string) (CipherType, error) {
	switch CipherType(s) {
	case "":
		return Preferred(), nil
	case CipherAESGCM, CipherChaCha20:
		return CipherType(s), nil
	default:
		return "", fmt.Errorf("adaptive: unknown cipher type %q", s)
	}
}

// NewWithType creates a cipher of the given type.
func NewWithType(key []byte, t CipherType) (Cipher, error) {
	var (
		aead cipher.AEAD
		err  error
	)
	switch t {
	case CipherAESGCM:
		aead, err = newAESGCM(key)
	case CipherChaCha20:
		if len(key) != chacha20poly1305.KeySize {
			return nil, errors.New("adaptive: chacha20-poly1305 needs a 32 byte key")
		}
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("adaptive: unknown cipher type %q", t)
	}
	if err != nil {
		return nil, err
	}
	return &aeadCipher{typ: t, aead: aead}, nil
}

func newAESGCM(key []byte) (cipher.AEAD, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, errors.New("adaptive: aes-gcm needs a 16, 24 or 32 byte key")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

type aeadCipher struct {
	typ  CipherType
	aead cipher.AEAD
}

func (c *aeadCipher) Type() CipherType { return c.typ }
func (c *aeadCipher) NonceSize() int   { return c.aead.NonceSize() }
func (c *aeadCipher) Overhead() int    { return c.aead.Overhead() }

func (c *aeadCipher) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *aeadCipher) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, ErrCiphertextTooShort
	}
	return c.aead.Open(nil, ciphertext[:n], ciphertext[n:], additionalData)
}
