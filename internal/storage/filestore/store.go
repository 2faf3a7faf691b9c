// Package filestore persists the session in a YAML file with the token
// encrypted at rest.
//
// The encryption key is derived with HKDF from a random master key kept
// next to the session file (created on first save, mode 0600), or, when a
// passphrase is configured, stretched from it with Argon2id using a salt
// stored in the session file.
package filestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/pkg/crypto/adaptive"
	"github.com/yndnr/tokgate/pkg/token"
)

const (
	formatVersion = 1
	masterKeySize = 32
	keyInfo       = "tokgate/session/file"
)

var aad = []byte("tokgate/session/v1")

type fileRecord struct {
	Version int    `yaml:"version"`
	Cipher  string `yaml:"cipher"`
	Salt    string `yaml:"salt,omitempty"`
	Token   string `yaml:"token"`
	Expired bool   `yaml:"expired"`
	SavedAt int64  `yaml:"saved_at"`
}

// Store is a file-backed session.Persister.
type Store struct {
	path       string
	keyPath    string
	passphrase []byte
	cipher     adaptive.CipherType
	log        logger.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithKeyFile sets the master key location. Defaults to "<path>.key".
func WithKeyFile(path string) Option {
	return func(s *Store) {
		if path != "" {
			s.keyPath = path
		}
	}
}

// WithPassphrase derives the key from a passphrase instead of a key file.
func WithPassphrase(p []byte) Option {
	return func(s *Store) {
		s.passphrase = p
	}
}

// WithCipher forces a cipher type.
func WithCipher(t adaptive.CipherType) Option {
	return func(s *Store) {
		s.cipher = t
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New creates a Store writing to path.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, domain.ErrInvalidConfig.WithDetails("session file path is required")
	}
	s := &Store{
		path:    path,
		keyPath: path + ".key",
		cipher:  adaptive.Preferred(),
		log:     logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.passphrase) > 0 && len(s.passphrase) < adaptive.MinPassphraseSize {
		return nil, domain.ErrInvalidConfig.WithCause(adaptive.ErrPassphraseTooShort)
	}
	return s, nil
}

// Path returns the session file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads and decrypts the session file. A missing file is not an
// error.
func (s *Store) Load(_ context.Context) (*domain.PersistedSession, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.ErrPersistence.WithCause(fmt.Errorf("read %s: %w", s.path, err))
	}

	var rec fileRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, domain.ErrPersistence.WithCause(fmt.Errorf("parse %s: %w", s.path, err))
	}
	if rec.Version != formatVersion {
		return nil, domain.ErrPersistence.WithDetails(fmt.Sprintf("unsupported session file version %d", rec.Version))
	}

	out := &domain.PersistedSession{Expired: rec.Expired, SavedAt: rec.SavedAt}
	if rec.Token == "" {
		return out, nil
	}

	salt, err := decodeSalt(rec.Salt)
	if err != nil {
		return nil, domain.ErrPersistence.WithCause(err)
	}
	sealer, err := s.sealer(adaptive.CipherType(rec.Cipher), salt, false)
	if err != nil {
		return nil, domain.ErrPersistence.WithCause(err)
	}
	tok, err := sealer.Open(rec.Token)
	if err != nil {
		return nil, domain.ErrPersistence.WithCause(err)
	}
	out.Token = tok
	return out, nil
}

// Save encrypts the token and writes the file atomically with mode 0600.
func (s *Store) Save(_ context.Context, in *domain.PersistedSession) error {
	if in == nil {
		return domain.ErrInvalidArgument.WithDetails("nil session record")
	}

	rec := fileRecord{
		Version: formatVersion,
		Cipher:  string(s.cipher),
		Expired: in.Expired,
		SavedAt: in.SavedAt,
	}

	if in.Token != "" {
		var salt []byte
		if len(s.passphrase) > 0 {
			var err error
			if salt, err = adaptive.NewSalt(); err != nil {
				return domain.ErrPersistence.WithCause(err)
			}
			rec.Salt = base64.StdEncoding.EncodeToString(salt)
		}
		sealer, err := s.sealer(s.cipher, salt, true)
		if err != nil {
			return domain.ErrPersistence.WithCause(err)
		}
		if rec.Token, err = sealer.Seal(in.Token); err != nil {
			return domain.ErrPersistence.WithCause(err)
		}
	}

	data, err := yaml.Marshal(&rec)
	if err != nil {
		return domain.ErrPersistence.WithCause(err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return domain.ErrPersistence.WithCause(err)
	}
	s.log.Debug("session file written", "path", s.path, "cipher", rec.Cipher)
	return nil
}

// Clear removes the session file. The master key is kept.
func (s *Store) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.ErrPersistence.WithCause(err)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) sealer(t adaptive.CipherType, salt []byte, create bool) (*adaptive.Sealer, error) {
	var key []byte
	if len(s.passphrase) > 0 {
		if salt == nil {
			return nil, errors.New("session file has no salt for passphrase key")
		}
		k, err := adaptive.KeyFromPassphrase(s.passphrase, salt)
		if err != nil {
			return nil, err
		}
		key = k
	} else {
		master, err := s.masterKey(create)
		if err != nil {
			return nil, err
		}
		defer adaptive.Zero(master)
		if key, err = adaptive.DeriveKey(master, keyInfo); err != nil {
			return nil, err
		}
	}
	defer adaptive.Zero(key)
	return adaptive.NewSealer(key, t, aad)
}

func (s *Store) masterKey(create bool) ([]byte, error) {
	key, err := os.ReadFile(s.keyPath)
	if err == nil {
		if len(key) != masterKeySize {
			return nil, fmt.Errorf("key file %s: want %d bytes, got %d", s.keyPath, masterKeySize, len(key))
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) || !create {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	if key, err = token.GenerateBytes(masterKeySize); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(s.keyPath, key); err != nil {
		return nil, err
	}
	s.log.Info("created session key file", "path", s.keyPath)
	return key, nil
}

func decodeSalt(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	salt, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	return salt, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
