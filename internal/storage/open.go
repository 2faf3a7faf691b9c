// Package storage selects and opens the session persistence backend.
//
// Backends:
//
//   - memory: process memory, nothing survives exit
//   - file:   YAML file with the token encrypted at rest (default)
//   - badger: embedded Badger database
//   - redis:  Redis key with a TTL matching the token lifetime
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/storage/badgerstore"
	"github.com/yndnr/tokgate/internal/storage/filestore"
	"github.com/yndnr/tokgate/internal/storage/memory"
	"github.com/yndnr/tokgate/internal/storage/redisstore"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/pkg/crypto/adaptive"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// Backend is a session persister that holds resources.
type Backend interface {
	Load(ctx context.Context) (*domain.PersistedSession, error)
	Save(ctx context.Context, s *domain.PersistedSession) error
	Clear(ctx context.Context) error
	Close() error
}

// Config selects a backend.
type Config struct {
	Kind string

	// File backend.
	File       string
	KeyFile    string
	Passphrase string
	Cipher     string

	// Badger backend.
	BadgerDir string

	// Redis backend.
	RedisAddr string

	// Key names the record in shared backends (memory, badger, redis).
	Key string

	// Space is shared by memory backends opened with it.
	Space *memory.Space
}

// Open opens the configured backend.
func Open(ctx context.Context, cfg Config, log logger.Logger) (Backend, error) {
	if log == nil {
		log = logger.Default()
	}

	switch strings.ToLower(cfg.Kind) {
	case BackendMemory:
		return memory.New(memory.WithKey(cfg.Key), memory.WithSpace(cfg.Space)), nil

	case "", BackendFile:
		ct, err := adaptive.ParseType(cfg.Cipher)
		if err != nil {
			return nil, domain.ErrInvalidConfig.WithCause(err)
		}
		opts := []filestore.Option{
			filestore.WithKeyFile(cfg.KeyFile),
			filestore.WithCipher(ct),
			filestore.WithLogger(log),
		}
		if cfg.Passphrase != "" {
			opts = append(opts, filestore.WithPassphrase([]byte(cfg.Passphrase)))
		}
		fs, err := filestore.New(cfg.File, opts...)
		if err != nil {
			return nil, err
		}
		return fs, nil

	case BackendBadger:
		bs, err := badgerstore.Open(badgerstore.Config{Dir: cfg.BadgerDir, Key: cfg.Key}, log)
		if err != nil {
			return nil, err
		}
		return bs, nil

	case BackendRedis:
		rs, err := redisstore.Dial(ctx, cfg.RedisAddr, cfg.Key)
		if err != nil {
			return nil, err
		}
		return rs, nil

	default:
		return nil, domain.ErrInvalidConfig.WithDetails(fmt.Sprintf("unknown session store %q", cfg.Kind))
	}
}
