package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/pkg/crypto/adaptive"
)

const testToken = "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1c2VyLTEifQ.c2ln"

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokgate", "session.yaml")
	s, err := New(path, append([]Option{WithLogger(logger.Nop())}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestStore_MissingFile(t *testing.T) {
	s := newStore(t)

	rec, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rec != nil {
		t.Errorf("Load() = %+v, want nil", rec)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	if err := s.Save(ctx, &domain.PersistedSession{Token: testToken, SavedAt: 99}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rec.Token != testToken || rec.SavedAt != 99 {
		t.Errorf("Load() = %+v", rec)
	}
}

func TestStore_TokenEncryptedAtRest(t *testing.T) {
	s := newStore(t)
	s.Save(context.Background(), &domain.PersistedSession{Token: testToken})

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if strings.Contains(string(data), testToken) {
		t.Error("session file contains the plaintext token")
	}

	for _, p := range []string{s.Path(), s.Path() + ".key"} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("Stat(%s) error = %v", p, err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("%s mode = %o, want 600", p, perm)
		}
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	s.Save(ctx, &domain.PersistedSession{Token: testToken})

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
	if rec, _ := s.Load(ctx); rec != nil {
		t.Errorf("Load() after Clear = %+v", rec)
	}
	if _, err := os.Stat(s.Path() + ".key"); err != nil {
		t.Error("Clear should keep the key file")
	}
}

func TestStore_WrongKeyFails(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	s.Save(ctx, &domain.PersistedSession{Token: testToken})

	other := filepath.Join(t.TempDir(), "other.key")
	os.WriteFile(other, make([]byte, masterKeySize), 0o600)
	s2, _ := New(s.Path(), WithKeyFile(other), WithLogger(logger.Nop()))

	_, err := s2.Load(ctx)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("Load() error = %v, want ErrPersistence", err)
	}
}

func TestStore_MissingKeyFileOnLoad(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	s.Save(ctx, &domain.PersistedSession{Token: testToken})
	os.Remove(s.Path() + ".key")

	if _, err := s.Load(ctx); !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("Load() error = %v, want ErrPersistence", err)
	}
}

func TestStore_Passphrase(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, WithPassphrase([]byte("correct horse battery")), WithCipher(adaptive.CipherChaCha20))

	if err := s.Save(ctx, &domain.PersistedSession{Token: testToken}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(s.Path() + ".key"); !errors.Is(err, os.ErrNotExist) {
		t.Error("passphrase mode should not create a key file")
	}

	rec, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rec.Token != testToken {
		t.Errorf("Token = %q", rec.Token)
	}

	wrong, _ := New(s.Path(), WithPassphrase([]byte("wrong horse battery")), WithLogger(logger.Nop()))
	if _, err := wrong.Load(ctx); !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("Load() with wrong passphrase error = %v, want ErrPersistence", err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(""); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("New(\"\") error = %v, want ErrInvalidConfig", err)
	}
	if _, err := New("/tmp/x", WithPassphrase([]byte("short"))); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("New(short passphrase) error = %v, want ErrInvalidConfig", err)
	}
}

func TestStore_CorruptFile(t *testing.T) {
	s := newStore(t)
	os.MkdirAll(filepath.Dir(s.Path()), 0o700)

	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "{{{"},
		{"unknown version", "version: 7\n"},
		{"bad ciphertext", "version: 1\ncipher: aes-gcm\ntoken: '!!!'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.WriteFile(s.Path(), []byte(tt.content), 0o600)
			if _, err := s.Load(context.Background()); !errors.Is(err, domain.ErrPersistence) {
				t.Errorf("Load() error = %v, want ErrPersistence", err)
			}
		})
	}
}
