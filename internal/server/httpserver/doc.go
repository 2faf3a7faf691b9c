// Package httpserver is the tokgate gateway: a local HTTP server that
// owns one session and fronts the backend API for a browser.
//
// Routes:
//
//   - GET /health                  liveness
//   - GET /session                 session state
//   - POST /session                sign in with {"token": "..."}
//   - DELETE /session              sign out
//   - POST /validate               validate one field of a built-in form
//   - GET /metrics                 Prometheus metrics
//   - GET /, GET /articles/...     pages, behind the route guard
//   - /api/{path...}               backend API passthrough with auth
//
// Page loads are fetched through the reactive request path so the
// browser's cookies are forwarded and identical concurrent loads share one
// backend call. API passthrough uses the imperative path.
package httpserver
