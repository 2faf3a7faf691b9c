// Package main provides the entry point for tokgate.
//
// tokgate holds a bearer-token session for a JSON API: it persists the
// token, logs out when the token expires, attaches it to API requests,
// and can front the API for a browser as a local gateway.
//
// Usage:
//
//	tokgate login --token "$JWT"
//	tokgate status -o json
//	tokgate fetch --auth /articles
//	tokgate watch --metrics-addr 127.0.0.1:9090
//	tokgate serve --listen 127.0.0.1:8080
//	tokgate repl
package main
