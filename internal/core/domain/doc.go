// Package domain defines the core domain models for tokgate.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - SessionState: read-only snapshot of the client session
//   - PersistedSession: the record persistence backends store
//   - DecodedToken: claims view of a bearer token
//   - Errors: coded domain error definitions
package domain
