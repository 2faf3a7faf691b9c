// Package badgerstore persists the session in an embedded Badger database.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

const (
	keyPrefix = "session/"

	// DefaultGCInterval is how often the value log is compacted.
	DefaultGCInterval = 10 * time.Minute

	gcDiscardRatio = 0.5
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("badgerstore: closed")

// Config configures the Store.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in memory (tests).
	InMemory bool

	// Key names the session record. Defaults to "default".
	Key string

	// GCInterval is the value log GC period. Zero uses DefaultGCInterval.
	GCInterval time.Duration
}

// Store is a Badger-backed session.Persister.
type Store struct {
	db  *badger.DB
	key []byte
	log logger.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens or creates the database.
func Open(cfg Config, log logger.Logger) (*Store, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, domain.ErrInvalidConfig.WithDetails("badger dir is required")
	}
	if log == nil {
		log = logger.Default()
	}
	if cfg.Key == "" {
		cfg.Key = "default"
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = DefaultGCInterval
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{log: log}
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domain.ErrPersistence.WithCause(fmt.Errorf("badger: open db: %w", err))
	}

	s := &Store{
		db:     db,
		key:    []byte(keyPrefix + cfg.Key),
		log:    log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go s.gcLoop(cfg.GCInterval, cfg.InMemory)

	log.Debug("badger store opened", "dir", cfg.Dir, "in_memory", cfg.InMemory)
	return s, nil
}

// Load returns the stored record, or nil.
func (s *Store) Load(_ context.Context) (*domain.PersistedSession, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, nil
	case errors.Is(err, badger.ErrDBClosed):
		return nil, domain.ErrPersistence.WithCause(ErrClosed)
	case err != nil:
		return nil, domain.ErrPersistence.WithCause(err)
	}

	var rec domain.PersistedSession
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, domain.ErrPersistence.WithCause(fmt.Errorf("decode record: %w", err))
	}
	return &rec, nil
}

// Save writes rec.
func (s *Store) Save(_ context.Context, rec *domain.PersistedSession) error {
	if rec == nil {
		return domain.ErrInvalidArgument.WithDetails("nil session record")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return domain.ErrPersistence.WithCause(err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, data)
	}); err != nil {
		return domain.ErrPersistence.WithCause(err)
	}
	return nil
}

// Clear deletes the record.
func (s *Store) Clear(_ context.Context) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key)
	}); err != nil {
		return domain.ErrPersistence.WithCause(err)
	}
	return nil
}

// Close stops the GC loop and closes the database.
func (s *Store) Close() error {
	select {
	case <-s.stopCh:
		return nil
	default:
	}
	close(s.stopCh)
	<-s.doneCh

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("badger: close db: %w", err)
	}
	return nil
}

// gcLoop runs periodic value log garbage collection. In-memory databases
// have no value log, so the loop only waits for Close.
func (s *Store) gcLoop(interval time.Duration, inMemory bool) {
	defer close(s.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if inMemory {
				continue
			}
			s.runGC()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) runGC() {
	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return
		}
		if err != nil {
			s.log.Warn("badger value log gc failed", "error", err)
			return
		}
	}
}

// badgerLogger adapts logger.Logger to badger.Logger.
type badgerLogger struct {
	log logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
