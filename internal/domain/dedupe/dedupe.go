// Package dedupe tracks idempotency keys so resumable runs skip work that an
// earlier run already committed.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Key identifies one processed timing-source event.
type Key struct {
	Date string
	Name string
}

// Deduper records processed keys to ensure at-most-once processing per run.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key Key) bool

	// Seen reports whether key is recorded without recording it.
	Seen(key Key) bool

	// Unrecord removes a key so a failed unit is retried by a later run.
	Unrecord(ctx context.Context, key Key)

	Size() int64
}

// inMemoryDeduper holds every key for the lifetime of one run. Keys are never
// evicted: an evicted key would be reprocessed and its records duplicated.
type inMemoryDeduper struct {
	mu   sync.RWMutex
	seen map[Key]struct{}
	size atomic.Int64
	hint int
}

// NewInMemoryDeduper creates an empty deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[Key]struct{}, d.hint)
	return d
}

// FromKeys builds a deduper pre-seeded with keys derived from existing output.
func FromKeys(keys []Key, opts ...Option) Deduper {
	d := NewInMemoryDeduper(append([]Option{WithExpectedSize(len(keys))}, opts...)...)
	for _, k := range keys {
		d.SeenAndRecord(context.Background(), k)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key Key) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Seen(key Key) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.seen[key]
	return ok
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key Key) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		delete(d.seen, key)
		d.size.Add(-1)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
