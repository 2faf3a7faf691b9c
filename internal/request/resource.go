package request

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Doer executes a request configuration and decodes the JSON response
// into out.
type Doer interface {
	Do(ctx context.Context, cfg Config, out any) error
}

// Resource is a reactive fetch: its result is cached until Refresh, and
// concurrent fetches of the same key share one network call.
type Resource struct {
	key   string
	cfg   Config
	group *singleflight.Group

	mu     sync.Mutex
	cached json.RawMessage
}

// Key returns the deduplication key.
func (r *Resource) Key() string {
	return r.key
}

// Config returns a copy of the merged configuration.
func (r *Resource) Config() Config {
	cfg := r.cfg
	cfg.Headers = make(map[string]string, len(r.cfg.Headers))
	for k, v := range r.cfg.Headers {
		cfg.Headers[k] = v
	}
	return cfg
}

// Fetch decodes the resource into out, calling d only when nothing is
// cached. The shared call is detached from any one caller: it keeps the
// values of ctx but not its cancellation, and is bounded by the
// configured timeout. Each caller stops waiting when its own ctx ends.
func (r *Resource) Fetch(ctx context.Context, d Doer, out any) error {
	r.mu.Lock()
	cached := r.cached
	r.mu.Unlock()

	if cached == nil {
		ch := r.group.DoChan(r.key, func() (any, error) {
			callCtx := context.WithoutCancel(ctx)
			if r.cfg.Timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(callCtx, r.cfg.Timeout)
				defer cancel()
			}
			var raw json.RawMessage
			if err := d.Do(callCtx, r.cfg, &raw); err != nil {
				return nil, err
			}
			return raw, nil
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res = <-ch:
		}
		if res.Err != nil {
			return res.Err
		}
		cached = res.Val.(json.RawMessage)

		r.mu.Lock()
		r.cached = cached
		r.mu.Unlock()
	}

	if out == nil || len(cached) == 0 {
		return nil
	}
	if err := json.Unmarshal(cached, out); err != nil {
		return fmt.Errorf("decode %s: %w", r.key, err)
	}
	return nil
}

// Refresh drops the cached result.
func (r *Resource) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
}

// Cached reports whether a result is cached.
func (r *Resource) Cached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cached != nil
}
