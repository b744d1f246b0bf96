// Package dedupe coalesces identical requests while one of them is in flight.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 1024

// Deduper maps request keys to the id of the job currently serving them.
type Deduper interface {
	// Claim records id as the holder of key. When key is already held it
	// returns the holder's id and true, and records nothing.
	Claim(ctx context.Context, key, id string) (holder string, held bool)

	// Release frees key if id still holds it. Releasing a key held by
	// another id is a no-op so a late release cannot drop a newer claim.
	Release(ctx context.Context, key, id string)

	Size() int64
}

// node is one claim in the recency list.
type node struct {
	key, id    string
	prev, next *node
}

func (n *node) reset() {
	*n = node{}
}

// inMemoryDeduper keeps claims in a map and a doubly linked list, newest at
// head. When bounded, the oldest claim is evicted to make room; an evicted
// key simply stops coalescing.
type inMemoryDeduper struct {
	mu         sync.Mutex
	claims     map[string]*node
	head, tail *node
	maxSize    int
	size       atomic.Int64
	nodePool   sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.claims = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.claims[key]; ok {
		return n.id, true
	}
	if d.maxSize > 0 && len(d.claims) >= d.maxSize {
		d.remove(d.tail)
	}

	n := d.nodePool.Get().(*node)
	n.key, n.id = key, id
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.claims[key] = n
	d.size.Add(1)
	return "", false
}

func (d *inMemoryDeduper) Release(_ context.Context, key, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.claims[key]; ok && n.id == id {
		d.remove(n)
	}
}

// remove unlinks n and returns it to the pool. Must be called with d.mu held.
func (d *inMemoryDeduper) remove(n *node) {
	if n == nil {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	delete(d.claims, n.key)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

// Size returns the number of keys currently held.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
