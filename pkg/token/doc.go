// Package token decodes bearer tokens on the client side.
//
// The client never verifies signatures: it only reads the claims segment
// of a JWT to learn when the token expires. Signature checks belong to the
// API server that issued the token.
//
// Decode failures of any kind (empty input, wrong segment count, bad
// base64, bad JSON, unknown alg header, missing exp) are reported as
// errors wrapping domain.ErrTokenMalformed, never as panics.
//
// Fingerprint returns a short, stable digest of a token for log lines so
// the raw bearer value never reaches log output.
package token
