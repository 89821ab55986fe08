// Package dedupe tracks seen score event ids so each event is applied once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/spaolacci/murmur3"
)

const (
	defaultMaxSize = 50_000
	defaultShards  = 16
)

// Deduper records seen event IDs to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool
	// Unrecord forgets id so it can be retried. Used when an event was
	// recorded but could not be queued.
	Unrecord(ctx context.Context, id string)
	Size() int64
}

// shard is one bounded FIFO set. ring holds ids in insertion order; when the
// shard is full the oldest live id is evicted.
type shard struct {
	mu   sync.Mutex
	seen map[string]int // id -> slot in ring, -1 when unbounded
	ring []string
	next int
}

// inMemoryDeduper spreads ids over shards by murmur3 hash so concurrent
// HTTP handlers rarely contend on one lock.
type inMemoryDeduper struct {
	shards  []*shard
	maxSize int // total capacity; <= 0 means unbounded
	nShards int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		nShards: defaultShards,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.nShards <= 0 {
		d.nShards = 1
	}
	perShard := 0
	if d.maxSize > 0 {
		if d.nShards > d.maxSize {
			d.nShards = d.maxSize
		}
		perShard = (d.maxSize + d.nShards - 1) / d.nShards
	}
	d.shards = make([]*shard, d.nShards)
	for i := range d.shards {
		s := &shard{seen: make(map[string]int)}
		if perShard > 0 {
			s.ring = make([]string, perShard)
		}
		d.shards[i] = s
	}
	return d
}

func (d *inMemoryDeduper) shardFor(id string) *shard {
	return d.shards[murmur3.Sum64([]byte(id))%uint64(len(d.shards))]
}

// SeenAndRecord implements Deduper.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	s := d.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[id]; exists {
		return true
	}
	if s.ring == nil {
		s.seen[id] = -1
		d.size.Add(1)
		return false
	}
	if old := s.ring[s.next]; old != "" {
		if slot, ok := s.seen[old]; ok && slot == s.next {
			delete(s.seen, old)
			d.size.Add(-1)
		}
	}
	s.ring[s.next] = id
	s.seen[id] = s.next
	s.next = (s.next + 1) % len(s.ring)
	d.size.Add(1)
	return false
}

// Unrecord implements Deduper.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	s := d.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, exists := s.seen[id]
	if !exists {
		return
	}
	delete(s.seen, id)
	if slot >= 0 {
		s.ring[slot] = ""
	}
	d.size.Add(-1)
}

// Size returns the number of ids currently remembered.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
