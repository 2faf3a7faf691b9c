// Package logger provides structured logging for tokgate.
//
//   - logger.go: log/slog backed Logger with one shared, adjustable level
//   - context.go: loggers and request IDs carried in a context
//   - redact.go: masking of bearer tokens, JWTs and credential fields
//
// Nothing that reaches a handler may contain a raw bearer token. Values
// are masked by shape (Bearer prefix, three-segment JWT) and by key name.
package logger
