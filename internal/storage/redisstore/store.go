// Package redisstore persists the session in Redis.
//
// The record expires together with the token: its TTL is the token's
// remaining lifetime, so a stale session never outlives its exp claim.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/infra/clock"
	"github.com/yndnr/tokgate/pkg/token"
)

const (
	// DefaultPrefix namespaces session keys.
	DefaultPrefix = "tokgate:session:"

	// MinTTL is used for tokens that are already expired.
	MinTTL = time.Second
)

// Store is a Redis-backed session.Persister.
type Store struct {
	rdb    redis.UniversalClient
	key    string
	codec  token.Codec
	clock  clock.Clock
	closer func() error
}

// Option configures the Store.
type Option func(*Store)

// WithCodec sets the codec used to read exp for the TTL.
func WithCodec(c token.Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// WithClock sets the clock used to compute the TTL.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// New wraps an existing client. The caller keeps ownership of rdb.
func New(rdb redis.UniversalClient, key string, opts ...Option) *Store {
	if key == "" {
		key = "default"
	}
	s := &Store{
		rdb:    rdb,
		key:    DefaultPrefix + key,
		codec:  token.NewJWTCodec(),
		clock:  clock.Real{},
		closer: func() error { return nil },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial connects to addr and checks the connection. Close releases the
// client.
func Dial(ctx context.Context, addr, key string, opts ...Option) (*Store, error) {
	if addr == "" {
		return nil, domain.ErrInvalidConfig.WithDetails("redis address is required")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, domain.ErrPersistence.WithCause(fmt.Errorf("redis ping %s: %w", addr, err))
	}
	s := New(rdb, key, opts...)
	s.closer = rdb.Close
	return s, nil
}

// Key returns the Redis key in use.
func (s *Store) Key() string {
	return s.key
}

// Load returns the stored record, or nil when absent or expired.
func (s *Store) Load(ctx context.Context) (*domain.PersistedSession, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.ErrPersistence.WithCause(err)
	}

	var rec domain.PersistedSession
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, domain.ErrPersistence.WithCause(fmt.Errorf("decode record: %w", err))
	}
	return &rec, nil
}

// Save writes rec with a TTL matching the token lifetime. Records whose
// token cannot be decoded are stored without expiry.
func (s *Store) Save(ctx context.Context, rec *domain.PersistedSession) error {
	if rec == nil {
		return domain.ErrInvalidArgument.WithDetails("nil session record")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return domain.ErrPersistence.WithCause(err)
	}
	if err := s.rdb.Set(ctx, s.key, data, s.ttl(rec.Token)).Err(); err != nil {
		return domain.ErrPersistence.WithCause(err)
	}
	return nil
}

// Clear deletes the record.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return domain.ErrPersistence.WithCause(err)
	}
	return nil
}

// Close releases the client if the Store created it.
func (s *Store) Close() error {
	return s.closer()
}

func (s *Store) ttl(tok string) time.Duration {
	if tok == "" {
		return 0
	}
	decoded, err := s.codec.Decode(tok)
	if err != nil {
		return 0
	}
	if left := decoded.Remaining(s.clock.Now()); left > MinTTL {
		return left
	}
	return MinTTL
}
