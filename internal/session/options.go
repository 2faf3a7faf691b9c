package session

import (
	"time"

	"github.com/yndnr/tokgate/internal/infra/clock"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
	"github.com/yndnr/tokgate/pkg/token"
)

// Defaults.
const (
	DefaultInterval  = time.Second
	DefaultEntryPath = "/"
)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for scheduling and expiry comparison.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithCodec sets the token codec.
func WithCodec(c token.Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// WithNavigator sets the logout navigation target.
func WithNavigator(n Navigator) Option {
	return func(s *Store) {
		s.nav = n
	}
}

// WithPersister sets the persistence backend.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithInterval sets the watcher interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithEntryPath sets the unauthenticated entry point signalled on logout.
func WithEntryPath(path string) Option {
	return func(s *Store) {
		if path != "" {
			s.entryPath = path
		}
	}
}
