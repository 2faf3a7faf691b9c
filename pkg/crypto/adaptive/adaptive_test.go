package adaptive

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

var key32 = func() []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}()

func TestNew(t *testing.T) {
	c, err := New(key32)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Type() != Preferred() {
		t.Errorf("Type() = %s, want %s", c.Type(), Preferred())
	}
}

func TestNewWithType_KeySizes(t *testing.T) {
	tests := []struct {
		name    string
		typ     CipherType
		keyLen  int
		wantErr bool
	}{
		{"aes-128", CipherAESGCM, 16, false},
		{"aes-192", CipherAESGCM, 24, false},
		{"aes-256", CipherAESGCM, 32, false},
		{"aes bad", CipherAESGCM, 20, true},
		{"chacha", CipherChaCha20, 32, false},
		{"chacha short", CipherChaCha20, 16, true},
		{"unknown", CipherType("rot13"), 32, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithType(make([]byte, tt.keyLen), tt.typ)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewWithType() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	if got, _ := ParseType(""); got != Preferred() {
		t.Errorf("ParseType(\"\") = %s, want %s", got, Preferred())
	}
	if got, _ := ParseType("chacha20-poly1305"); got != CipherChaCha20 {
		t.Errorf("ParseType(chacha) = %s", got)
	}
	if _, err := ParseType("des"); err == nil {
		t.Error("ParseType(des) should fail")
	}
}

func TestCipher_EncryptDecrypt(t *testing.T) {
	for _, typ := range []CipherType{CipherAESGCM, CipherChaCha20} {
		t.Run(string(typ), func(t *testing.T) {
			c, err := NewWithType(key32, typ)
			if err != nil {
				t.Fatalf("NewWithType() error = %v", err)
			}

			plaintext := []byte("eyJhbGciOiJIUzI1NiJ9.e30.sig")
			ct, err := c.Encrypt(plaintext, []byte("aad"))
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(ct) != len(plaintext)+c.NonceSize()+c.Overhead() {
				t.Errorf("ciphertext length = %d", len(ct))
			}

			got, err := c.Decrypt(ct, []byte("aad"))
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Errorf("Decrypt() = %q, want %q", got, plaintext)
			}

			if _, err := c.Decrypt(ct, []byte("other")); err == nil {
				t.Error("Decrypt() with wrong aad should fail")
			}
			ct[len(ct)-1] ^= 0xFF
			if _, err := c.Decrypt(ct, []byte("aad")); err == nil {
				t.Error("Decrypt() of tampered data should fail")
			}
			if _, err := c.Decrypt([]byte{1, 2}, nil); !errors.Is(err, ErrCiphertextTooShort) {
				t.Errorf("Decrypt(short) error = %v, want ErrCiphertextTooShort", err)
			}
		})
	}
}

func TestCipher_NonceIsRandom(t *testing.T) {
	c, _ := New(key32)
	a, _ := c.Encrypt([]byte("same"), nil)
	b, _ := c.Encrypt([]byte("same"), nil)

	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same plaintext should differ")
	}
}

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey(key32, "tokgate/session")
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if len(a) != KeySize {
		t.Errorf("len = %d, want %d", len(a), KeySize)
	}

	again, _ := DeriveKey(key32, "tokgate/session")
	other, _ := DeriveKey(key32, "tokgate/other")
	if !bytes.Equal(a, again) {
		t.Error("DeriveKey should be deterministic")
	}
	if bytes.Equal(a, other) {
		t.Error("different info should give different keys")
	}

	if _, err := DeriveKey(make([]byte, 8), "x"); !errors.Is(err, ErrKeyTooShort) {
		t.Errorf("DeriveKey(short) error = %v, want ErrKeyTooShort", err)
	}
}

func TestKeyFromPassphrase(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}

	a, err := KeyFromPassphrase([]byte("correct horse"), salt)
	if err != nil {
		t.Fatalf("KeyFromPassphrase() error = %v", err)
	}
	b, _ := KeyFromPassphrase([]byte("correct horse"), salt)
	if !bytes.Equal(a, b) {
		t.Error("same passphrase and salt should give the same key")
	}

	if _, err := KeyFromPassphrase([]byte("short"), salt); !errors.Is(err, ErrPassphraseTooShort) {
		t.Errorf("error = %v, want ErrPassphraseTooShort", err)
	}
	if _, err := KeyFromPassphrase([]byte("correct horse"), []byte("x")); !errors.Is(err, ErrBadSalt) {
		t.Errorf("error = %v, want ErrBadSalt", err)
	}
}

func TestSealer(t *testing.T) {
	s, err := NewSealer(key32, "", []byte("session/v1"))
	if err != nil {
		t.Fatalf("NewSealer() error = %v", err)
	}

	sealed, err := s.Seal("eyJhbGciOiJIUzI1NiJ9.payload.sig")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if strings.Contains(sealed, "payload") {
		t.Error("sealed value leaks plaintext")
	}

	got, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got != "eyJhbGciOiJIUzI1NiJ9.payload.sig" {
		t.Errorf("Open() = %q", got)
	}

	other, _ := NewSealer(key32, "", []byte("session/v2"))
	if _, err := other.Open(sealed); err == nil {
		t.Error("Open() under other aad should fail")
	}
	if _, err := s.Open("!!!"); err == nil {
		t.Error("Open() of invalid base64 should fail")
	}
}

func TestZero(t *testing.T) {
	k := []byte{1, 2, 3}
	Zero(k)
	if !bytes.Equal(k, []byte{0, 0, 0}) {
		t.Errorf("Zero() left %v", k)
	}
}
