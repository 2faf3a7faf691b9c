// Package memory keeps persisted sessions in process memory.
//
// It is the default backend in tests and for one-shot CLI invocations
// that should not leave state behind. Several Stores can share one
// Space, which is how the REPL and its subcommands see the same session.
package memory

import (
	"context"
	"sync"

	"github.com/yndnr/tokgate/internal/core/domain"
)

// DefaultKey is the record name used when none is configured.
const DefaultKey = "default"

// Space is a concurrent map of session records by key.
type Space struct {
	mu      sync.RWMutex
	records map[string]domain.PersistedSession
}

// NewSpace creates an empty Space.
func NewSpace() *Space {
	return &Space{records: make(map[string]domain.PersistedSession)}
}

// Len returns the number of stored records.
func (sp *Space) Len() int {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return len(sp.records)
}

// Store is a session.Persister over one key of a Space.
type Store struct {
	space *Space
	key   string
}

// Option configures the Store.
type Option func(*Store)

// WithKey sets the record key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithSpace shares an existing Space.
func WithSpace(sp *Space) Option {
	return func(s *Store) {
		if sp != nil {
			s.space = sp
		}
	}
}

// New creates a Store with its own Space unless WithSpace is given.
func New(opts ...Option) *Store {
	s := &Store{key: DefaultKey}
	for _, opt := range opts {
		opt(s)
	}
	if s.space == nil {
		s.space = NewSpace()
	}
	return s
}

// Load returns a copy of the stored record, or nil.
func (s *Store) Load(_ context.Context) (*domain.PersistedSession, error) {
	s.space.mu.RLock()
	defer s.space.mu.RUnlock()

	rec, ok := s.space.records[s.key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Save stores a copy of rec.
func (s *Store) Save(_ context.Context, rec *domain.PersistedSession) error {
	if rec == nil {
		return domain.ErrInvalidArgument.WithDetails("nil session record")
	}
	s.space.mu.Lock()
	defer s.space.mu.Unlock()
	s.space.records[s.key] = *rec
	return nil
}

// Clear removes the record.
func (s *Store) Clear(_ context.Context) error {
	s.space.mu.Lock()
	defer s.space.mu.Unlock()
	delete(s.space.records, s.key)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
