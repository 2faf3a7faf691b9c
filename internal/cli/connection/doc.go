// Package connection executes request configurations over HTTP.
//
// HTTPClient is the transport behind the CLI and the REPL. Every request
// carries a User-Agent and an X-Request-ID (a ULID, or the request ID
// already attached to the context), may be paced by a client-side rate
// limit, and has its JSON response decoded into the caller's value.
// Error responses become *APIError, whose message is what
// request.ErrorMessage shows to users.
package connection
