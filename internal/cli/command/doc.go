// Package command defines the tokgate CLI using urfave/cli/v2.
//
//   - root.go: application, global flags, runtime lifecycle
//   - runtime.go: wiring of config, session store, request builder and client
//   - session.go: login, logout, status
//   - fetch.go: fetch, articles
//   - watch.go: foreground expiration watcher with metrics and config reload
//   - serve.go: HTTP gateway
//   - validate.go: form field validation
//   - config.go: config show, path, init, validate
//   - repl.go: interactive mode
//
// Commands parse flags, use the shared Runtime, and render results with
// the output package.
package command
