// Package session owns the client's bearer token and detects its expiry.
//
// A Store holds the current token, an expired flag and the handle of a
// recurring expiration watcher. It is the only writer of that state:
// request builders, route guards and the REPL read it through accessors.
//
// States:
//
//	Unauthenticated (no token, no watcher) --SetToken+StartWatcher--> Authenticated
//	Authenticated (token, watcher running) --Logout------------------> Unauthenticated
//
// The watcher only ever moves the session toward Unauthenticated: every
// tick decodes the token and logs out when it is malformed or when the
// clock has reached exp. StartWatcher is idempotent, StopWatcher cancels
// the pending tick, and a tick that lost a race with StopWatcher is a
// no-op.
//
// Scheduling goes through clock.Clock so tests drive ticks with
// clock.Fake instead of sleeping.
package session
