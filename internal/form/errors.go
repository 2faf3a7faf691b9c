package form

import (
	"sort"
	"sync"
)

// Errors maps field names to messages. An empty message means valid.
// It is safe for concurrent use; the validator writes to it from timer
// goroutines.
type Errors struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewErrors creates an empty map.
func NewErrors() *Errors {
	return &Errors{m: make(map[string]string)}
}

// Set records msg for field.
func (e *Errors) Set(field, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.m[field] = msg
}

// Get returns the message for field and whether the field has an entry.
func (e *Errors) Get(field string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	msg, ok := e.m[field]
	return msg, ok
}

// Valid reports whether no field has a message.
func (e *Errors) Valid() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, msg := range e.m {
		if msg != "" {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of the map.
func (e *Errors) Snapshot() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.m))
	for k, v := range e.m {
		out[k] = v
	}
	return out
}

// Fields returns the field names with entries, sorted.
func (e *Errors) Fields() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.m))
	for k := range e.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
