// Package domain defines the core domain models for tokgate.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling.
package domain

import (
	"math"
	"time"
)

// AuthState is the coarse state of a client session.
type AuthState int

const (
	// StateUnauthenticated means no token is held and no watcher runs.
	StateUnauthenticated AuthState = iota
	// StateAuthenticated means a token is held.
	StateAuthenticated
)

// String returns the state name.
func (s AuthState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// SessionState is a read-only snapshot of a client session.
type SessionState struct {
	// Token is the bearer token, empty when absent.
	Token string `json:"-"`

	// Expired reports whether the session has been observed as expired.
	Expired bool `json:"expired"`

	// Watching reports whether the expiration watcher is scheduled.
	Watching bool `json:"watching"`

	// State is derived from token presence.
	State AuthState `json:"state"`
}

// PersistedSession is what persistence backends store between runs.
type PersistedSession struct {
	Token   string `json:"token" yaml:"token"`
	Expired bool   `json:"expired" yaml:"expired"`

	// SavedAt is the save timestamp (Unix milliseconds).
	SavedAt int64 `json:"saved_at" yaml:"saved_at"`
}

// DecodedToken is the claims view of a bearer token. It is derived on
// demand and never stored.
type DecodedToken struct {
	// ExpiresAt is the exp claim in epoch seconds.
	ExpiresAt int64

	// Claims holds every claim of the payload, exp included.
	Claims map[string]any
}

// ExpiresAtTime returns the expiration as a time.Time.
func (d *DecodedToken) ExpiresAtTime() time.Time {
	return time.Unix(d.ExpiresAt, 0)
}

// ExpiredAt reports whether the token is expired at now: once now reaches
// exp*1000 milliseconds. It compares whole seconds, which is the same test
// without scaling exp.
func (d *DecodedToken) ExpiredAt(now time.Time) bool {
	return now.Unix() >= d.ExpiresAt
}

// maxRemainingSeconds is the largest lifetime a time.Duration can hold.
const maxRemainingSeconds = math.MaxInt64 / int64(time.Second)

// Remaining returns the lifetime left at now, never negative. Lifetimes
// beyond what a Duration holds saturate.
func (d *DecodedToken) Remaining(now time.Time) time.Duration {
	if d.ExpiredAt(now) {
		return 0
	}
	secs := d.ExpiresAt - now.Unix()
	if secs < 0 || secs > maxRemainingSeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs)*time.Second - time.Duration(now.Nanosecond())
}

// Subject returns the sub claim, or "" when absent.
func (d *DecodedToken) Subject() string {
	if s, ok := d.Claims["sub"].(string); ok {
		return s
	}
	return ""
}

// SessionInfo is the user-facing view of a session, with the claims the
// CLI and the gateway display.
type SessionInfo struct {
	State     string        `json:"state" yaml:"state" table:"state"`
	Subject   string        `json:"subject,omitempty" yaml:"subject,omitempty" table:"subject"`
	ExpiresAt time.Time     `json:"expires_at,omitempty" yaml:"expires_at,omitempty" table:"expires"`
	Remaining time.Duration `json:"remaining_ns" yaml:"remaining" table:"remaining"`
	Expired   bool          `json:"expired" yaml:"expired" table:"expired"`
	Watching  bool          `json:"watching" yaml:"watching" table:"watching,wide"`
}
