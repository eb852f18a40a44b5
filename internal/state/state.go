// Package state holds the addressable external state (the watch address
// query) that carries the selected language across reloads.
package state

import (
	"net/url"
	"sync"
	"time"
)

// Store is the external state capability used by the language registry.
type Store interface {
	Read(key string) string
	Write(key, value string)
}

// Navigator receives the full encoded query whenever the address is replaced.
type Navigator interface {
	Replace(query string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(query string)

// Replace calls f(query).
func (f NavigatorFunc) Replace(query string) { f(query) }

// Query is a Store backed by a URL query. Writes take effect immediately in
// memory; the address replacement is debounced so that rapid changes collapse
// into one Replace carrying the latest values. All other parameters are kept.
type Query struct {
	flushMu sync.Mutex // serializes Replace calls so the newest query lands last

	mu     sync.Mutex
	values url.Values
	nav    Navigator
	delay  time.Duration
	timer  *time.Timer
	dirty  bool
	closed bool
}

// NewQuery creates a Query seeded with values. A zero delay replaces synchronously.
func NewQuery(values url.Values, nav Navigator, delay time.Duration) *Query {
	copied := url.Values{}
	for k, v := range values {
		copied[k] = append([]string(nil), v...)
	}
	return &Query{values: copied, nav: nav, delay: delay}
}

// Read returns the first value for key.
func (q *Query) Read(key string) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.values.Get(key)
}

// Write sets key and schedules an address replacement.
func (q *Query) Write(key, value string) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if value == "" {
		q.values.Del(key)
	} else {
		q.values.Set(key, value)
	}
	q.dirty = true

	if q.delay <= 0 {
		q.mu.Unlock()
		q.Flush()
		return
	}
	if q.timer == nil {
		q.timer = time.AfterFunc(q.delay, q.Flush)
	} else {
		q.timer.Reset(q.delay)
	}
	q.mu.Unlock()
}

// Encode returns the current encoded query.
func (q *Query) Encode() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.values.Encode()
}

// Flush performs a pending replacement now. It is a no-op when nothing changed.
func (q *Query) Flush() {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	q.mu.Lock()
	if !q.dirty {
		q.mu.Unlock()
		return
	}
	q.dirty = false
	if q.timer != nil {
		q.timer.Stop()
	}
	encoded := q.values.Encode()
	nav := q.nav
	q.mu.Unlock()

	if nav != nil {
		nav.Replace(encoded)
	}
}

// Close flushes any pending replacement and ignores later writes.
func (q *Query) Close() {
	q.mu.Lock()
	q.closed = true
	if q.timer != nil {
		q.timer.Stop()
	}
	q.mu.Unlock()

	q.Flush()
}

// Memory is a map-backed Store.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory creates a Memory store seeded with initial.
func NewMemory(initial map[string]string) *Memory {
	m := &Memory{values: make(map[string]string, len(initial))}
	for k, v := range initial {
		m.values[k] = v
	}
	return m
}

// Read returns the value for key.
func (m *Memory) Read(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

// Write stores value under key.
func (m *Memory) Write(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}
