// Package corrtable implements the sidecar multiplexer's request/response
// correlation table: a sharded concurrent map from request id to the
// pending reply channel, so concurrent insert/remove across thousands of
// in-flight requests never serializes on a single lock.
package corrtable

import (
	"hash/fnv"
	"sync"
)

const shardCount = 16

// Table is a 16-way sharded map keyed by sidecar request id. Each shard
// owns its own mutex, so two goroutines touching different shards never
// contend — the Go analogue of the original's DashMap.
type Table[V any] struct {
	shards [shardCount]shard[V]
}

type shard[V any] struct {
	mu sync.Mutex
	m  map[string]V
}

// New returns an empty Table.
func New[V any]() *Table[V] {
	t := &Table[V]{}
	for i := range t.shards {
		t.shards[i].m = make(map[string]V)
	}
	return t
}

func (t *Table[V]) shardFor(id string) *shard[V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &t.shards[h.Sum32()%shardCount]
}

// Insert binds id to v. A second Insert for the same id overwrites the
// first — callers are expected to generate unique ids per in-flight
// request, so this should not occur in practice.
func (t *Table[V]) Insert(id string, v V) {
	sh := t.shardFor(id)
	sh.mu.Lock()
	sh.m[id] = v
	sh.mu.Unlock()
}

// Remove deletes and returns the value bound to id, if any. The reader
// goroutine calls this exactly once per response line so that a given
// entry is handed to exactly one caller.
func (t *Table[V]) Remove(id string) (V, bool) {
	sh := t.shardFor(id)
	sh.mu.Lock()
	v, ok := sh.m[id]
	if ok {
		delete(sh.m, id)
	}
	sh.mu.Unlock()
	return v, ok
}

// Len returns the total number of in-flight entries across all shards.
// For diagnostics only — not safe to use for control flow since it
// reads each shard under its own lock, not a single global one.
func (t *Table[V]) Len() int {
	n := 0
	for i := range t.shards {
		t.shards[i].mu.Lock()
		n += len(t.shards[i].m)
		t.shards[i].mu.Unlock()
	}
	return n
}

// Drain removes and returns every entry currently in the table, used when
// the child process exits and every pending one-shot must be dropped so
// its caller observes a closed-channel error.
func (t *Table[V]) Drain() map[string]V {
	out := make(map[string]V)
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		for k, v := range sh.m {
			out[k] = v
		}
		sh.m = make(map[string]V)
		sh.mu.Unlock()
	}
	return out
}
