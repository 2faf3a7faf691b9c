// Package cmap provides a sharded map safe for concurrent use.
//
// Keys hash to one of a fixed number of shards, each guarded by its own
// RWMutex, so lookups for different keys rarely contend. The gateway keeps
// its per-client rate limiters in one.
//
//	m := cmap.New[string, *rate.Limiter]()
//	lim := m.GetOrCompute(ip, func() *rate.Limiter { return rate.NewLimiter(5, 5) })
package cmap
