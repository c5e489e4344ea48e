package cache

import (
	"sync"
	"time"
)

// entry pairs a cached value with the time it was stored. Entries are
// immutable; a fresh store replaces the whole entry.
type entry[V any] struct {
	value    V
	storedAt time.Time
}

// table is a single-kind id index. All access goes through the mutex, so a
// set never interleaves with another set or a get on the same key.
type table[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
}

func newTable[V any]() *table[V] {
	return &table[V]{entries: make(map[string]entry[V])}
}

// get returns the value only if present and younger than ttl. It is
// read-only: expired entries stay until a set, a delete, or a sweep.
func (t *table[V]) get(id string, now time.Time, ttl time.Duration) (V, bool) {
	t.mu.RLock()
	e, ok := t.entries[id]
	t.mu.RUnlock()

	if !ok || now.Sub(e.storedAt) >= ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (t *table[V]) set(id string, value V, now time.Time) {
	t.mu.Lock()
	t.entries[id] = entry[V]{value: value, storedAt: now}
	t.mu.Unlock()
}

func (t *table[V]) delete(id string) {
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}

func (t *table[V]) clear() {
	t.mu.Lock()
	t.entries = make(map[string]entry[V])
	t.mu.Unlock()
}

// count returns the number of live (non-expired) entries.
func (t *table[V]) count(now time.Time, ttl time.Duration) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, e := range t.entries {
		if now.Sub(e.storedAt) < ttl {
			n++
		}
	}
	return n
}

// oldest returns the age of the oldest live entry, or zero if empty.
func (t *table[V]) oldest(now time.Time, ttl time.Duration) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var oldest time.Duration
	for _, e := range t.entries {
		age := now.Sub(e.storedAt)
		if age < ttl && age > oldest {
			oldest = age
		}
	}
	return oldest
}

// sweep removes every entry whose age is at least ttl.
func (t *table[V]) sweep(now time.Time, ttl time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, e := range t.entries {
		if now.Sub(e.storedAt) >= ttl {
			delete(t.entries, id)
		}
	}
}
