// Package metric provides Prometheus metrics for tokgate.
//
//   - prometheus.go: Registry with counters for the watcher, logouts,
//     request building and field validation, plus the /metrics handler
//   - collector.go: scrape-time collector reading the session snapshot
//
// A nil *Registry is valid and records nothing, so library code can be
// used without metrics wiring.
package metric
