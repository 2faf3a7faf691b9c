package session

import (
	"context"
	"sync"
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/infra/clock"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
	"github.com/yndnr/tokgate/pkg/token"
)

// persistTimeout bounds persistence side effects of synchronous operations.
const persistTimeout = 5 * time.Second

// Store is the single owner of the session token.
//
// All methods are safe for concurrent use. A read-then-write of the token
// (expiry check followed by logout) happens under one lock hold; the
// persistence and navigation side effects run after the lock is released.
type Store struct {
	mu      sync.Mutex
	token   string
	expired bool
	watcher clock.Timer
	gen     uint64

	clock     clock.Clock
	codec     token.Codec
	nav       Navigator
	persister Persister
	log       logger.Logger
	metrics   *metric.Registry
	interval  time.Duration
	entryPath string
}

// New creates an unauthenticated Store.
func New(opts ...Option) *Store {
	s := &Store{
		expired:   true,
		clock:     clock.Real{},
		codec:     token.NewJWTCodec(),
		nav:       nopNavigator{},
		log:       logger.Default(),
		interval:  DefaultInterval,
		entryPath: DefaultEntryPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "session")
	return s
}

// Init restores a persisted session, if any, and starts the watcher when a
// token is present. A load failure is logged and leaves the store
// unauthenticated.
func (s *Store) Init(ctx context.Context) {
	if s.persister != nil {
		rec, err := s.persister.Load(ctx)
		switch {
		case err != nil:
			s.log.Warn("failed to load persisted session", "error", err)
		case rec != nil && rec.Token != "":
			s.mu.Lock()
			if s.token == "" {
				s.token = rec.Token
				s.expired = false
			}
			s.mu.Unlock()
			s.log.Debug("session restored", "fingerprint", token.Fingerprint(rec.Token))
		}
	}
	s.StartWatcher()
}

// Token returns the current token, or "" when absent.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// HasToken reports whether a token is held.
func (s *Store) HasToken() bool {
	return s.Token() != ""
}

// IsExpired reports the expired flag. It is true whenever no token is held.
func (s *Store) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expired
}

// Watching reports whether the expiration watcher is scheduled.
func (s *Store) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watcher != nil
}

// State returns a snapshot of the session.
func (s *Store) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := domain.SessionState{
		Token:    s.token,
		Expired:  s.expired,
		Watching: s.watcher != nil,
	}
	if s.token != "" {
		st.State = domain.StateAuthenticated
	}
	return st
}

// SetToken assigns the token and persists it. An empty token clears the
// session and stops the watcher without navigating.
func (s *Store) SetToken(tok string) {
	s.mu.Lock()
	s.token = tok
	s.expired = tok == ""
	if tok == "" {
		s.stopLocked()
	}
	s.mu.Unlock()

	if tok == "" {
		s.clearPersisted()
		return
	}
	s.save(tok)
}

// Login assigns the token and starts the watcher.
func (s *Store) Login(tok string) error {
	if tok == "" {
		return domain.ErrMissingArgument.WithDetails("token is required")
	}
	s.SetToken(tok)
	s.StartWatcher()
	s.log.Info("session started", "fingerprint", token.Fingerprint(tok))
	return nil
}

// Logout clears the token, stops the watcher, clears persisted state and
// signals navigation to the entry path. Calling it again is harmless.
func (s *Store) Logout() {
	s.mu.Lock()
	prev := s.logoutLocked()
	s.mu.Unlock()

	s.afterLogout(prev, metric.ReasonManual)
}

// CheckExpiration decodes the token and logs out when it is malformed or
// expired. Without a token it only marks the session expired.
func (s *Store) CheckExpiration() {
	s.mu.Lock()
	if s.token == "" {
		s.expired = true
		s.mu.Unlock()
		return
	}

	reason := ""
	decoded, err := s.codec.Decode(s.token)
	switch {
	case err != nil:
		reason = metric.ReasonMalformed
	case decoded.ExpiredAt(s.clock.Now()):
		reason = metric.ReasonExpired
	}
	if reason == "" {
		s.mu.Unlock()
		return
	}

	prev := s.logoutLocked()
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("session token is malformed", "error", err)
	}
	s.afterLogout(prev, reason)
}

// Close stops the watcher.
func (s *Store) Close() error {
	s.StopWatcher()
	return nil
}

func (s *Store) logoutLocked() string {
	prev := s.token
	s.token = ""
	s.expired = true
	s.stopLocked()
	return prev
}

func (s *Store) afterLogout(prev, reason string) {
	s.clearPersisted()
	s.metrics.ObserveLogout(reason)
	s.log.Info("session logged out", "reason", reason, "fingerprint", token.Fingerprint(prev))
	s.nav.Navigate(s.entryPath)
}

func (s *Store) save(tok string) {
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	rec := &domain.PersistedSession{
		Token:   tok,
		SavedAt: s.clock.Now().UnixMilli(),
	}
	if err := s.persister.Save(ctx, rec); err != nil {
		s.log.Warn("failed to persist session", "error", err)
	}
}

func (s *Store) clearPersisted() {
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.persister.Clear(ctx); err != nil {
		s.log.Warn("failed to clear persisted session", "error", err)
	}
}

// Info describes the session with the claims of its token.
func (s *Store) Info() domain.SessionInfo {
	st := s.State()
	info := domain.SessionInfo{
		State:    st.State.String(),
		Expired:  st.Expired,
		Watching: st.Watching,
	}
	if st.Token == "" {
		return info
	}
	if decoded, err := s.codec.Decode(st.Token); err == nil {
		info.Subject = decoded.Subject()
		info.ExpiresAt = decoded.ExpiresAtTime()
		info.Remaining = decoded.Remaining(s.clock.Now())
	}
	return info
}

// Validate reports whether tok is usable for a new session: it must
// decode and must not already be expired.
func (s *Store) Validate(tok string) error {
	if tok == "" {
		return domain.ErrMissingArgument.WithDetails("token is required")
	}
	decoded, err := s.codec.Decode(tok)
	if err != nil {
		return err
	}
	if decoded.ExpiredAt(s.clock.Now()) {
		return domain.ErrTokenExpired.WithDetails("expired at " + decoded.ExpiresAtTime().UTC().Format(time.RFC3339))
	}
	return nil
}
