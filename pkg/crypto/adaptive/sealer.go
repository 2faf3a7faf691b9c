package adaptive

import (
	"encoding/base64"
	"fmt"
)

// Sealer encrypts strings under fixed associated data and encodes them
// as unpadded base64url.
type Sealer struct {
	cipher Cipher
	aad    []byte
}

// NewSealer creates a Sealer. An empty t picks the preferred cipher.
func NewSealer(key []byte, t CipherType, aad []byte) (*Sealer, error) {
	if t == "" {
		t = Preferred()
	}
	c, err := NewWithType(key, t)
	if err != nil {
		return nil, err
	}
	return &Sealer{cipher: c, aad: aad}, nil
}

// Type returns the cipher type in use.
func (s *Sealer) Type() CipherType {
	return s.cipher.Type()
}

// Seal encrypts plaintext.
func (s *Sealer) Seal(plaintext string) (string, error) {
	ct, err := s.cipher.Encrypt([]byte(plaintext), s.aad)
	if err != nil {
		return "", fmt.Errorf("adaptive: seal: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

// Open reverses Seal. It fails if the data was tampered with, or sealed
// under another key or associated data.
func (s *Sealer) Open(sealed string) (string, error) {
	ct, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("adaptive: open: %w", err)
	}
	pt, err := s.cipher.Decrypt(ct, s.aad)
	if err != nil {
		return "", fmt.Errorf("adaptive: open: %w", err)
	}
	return string(pt), nil
}
