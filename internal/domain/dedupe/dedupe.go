// Package dedupe tracks cache write-back conflict keys so the same
// provider row is not queued for upsert over and over. The store's
// upsert is idempotent, so suppression here is purely load shedding;
// losing an entry is always safe.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records recently written-back conflict keys.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was recorded and
	// records it if not. Returns true if key was already present.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets a key. Used when an enqueue fails after the key
	// was recorded, so the next search can retry the write-back.
	Unrecord(ctx context.Context, key string)

	// Size returns the number of tracked keys.
	Size() int64
}

// inMemoryDeduper is a bounded set with FIFO eviction. A fixed ring of
// keys remembers insertion order; when full, the oldest key is dropped
// to make room.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	head    int
	maxSize int
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.maxSize)
	d.ring = make([]string, d.maxSize)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	if key == "" {
		// Keyless entries (user-created rows) are never suppressed.
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}

	// Evict the slot we are about to reuse.
	if old := d.ring[d.head]; old != "" {
		delete(d.seen, old)
	}
	d.ring[d.head] = key
	d.head = (d.head + 1) % d.maxSize
	d.seen[key] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	// The ring slot keeps the stale key; eviction of a key that is no
	// longer in the set is a no-op, so this stays consistent.
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
