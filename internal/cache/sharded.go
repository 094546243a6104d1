package cache

import (
	"context"
	"hash/maphash"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/regcov/resource"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"
)

// Entry is a key/value pair for InsertBatch.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
	_     cpu.CacheLinePad
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
	Shards  int
}

// ShardedCache is a concurrent map split into independently locked shards.
type ShardedCache[K comparable, V any] struct {
	shards   []shard[K, V]
	seed     maphash.Seed
	parallel bool
	rc       *resource.Controller
	shardCap int

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a sharded cache.
func New[K comparable, V any](opts ...Option) *ShardedCache[K, V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &ShardedCache[K, V]{
		shards:   make([]shard[K, V], o.numShards),
		seed:     maphash.MakeSeed(),
		parallel: o.parallelBatch,
		rc:       o.rc,
		shardCap: o.capacity / o.numShards,
	}
	for i := range c.shards {
		c.shards[i].items = make(map[K]V, c.shardCap)
	}
	return c
}

func (c *ShardedCache[K, V]) shardIndex(key K) int {
	return int(maphash.Comparable(c.seed, key) % uint64(len(c.shards)))
}

func (c *ShardedCache[K, V]) shardFor(key K) *shard[K, V] {
	return &c.shards[c.shardIndex(key)]
}

// Get returns the value for key.
func (c *ShardedCache[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// ContainsKey reports whether key is present without touching hit counters.
func (c *ShardedCache[K, V]) ContainsKey(key K) bool {
	_, ok := c.Peek(key)
	return ok
}

// Insert stores value under key, replacing any previous value.
// It reports whether the key was already present.
func (c *ShardedCache[K, V]) Insert(key K, value V) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	_, existed := s.items[key]
	s.items[key] = value
	s.mu.Unlock()
	return existed
}

// Remove deletes key and returns the removed value.
func (c *ShardedCache[K, V]) Remove(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	v, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	s.mu.Unlock()
	return v, ok
}

// Peek returns the value for key without touching hit counters.
func (c *ShardedCache[K, V]) Peek(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	return v, ok
}

// LoadOrStore stores value under key unless the key is already present.
// It returns the value held after the call and reports whether it was
// already present. The shard lock is held only for the map access.
func (c *ShardedCache[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.items[key]; ok {
		return v, true
	}
	s.items[key] = value
	return value, false
}

// InsertBatch stores all entries. Entries are grouped by shard in a single
// pass and each non-empty shard is locked once. Later entries win over
// earlier entries with the same key. Returns the number of keys that were
// not present before.
func (c *ShardedCache[K, V]) InsertBatch(entries []Entry[K, V]) int {
	if len(entries) == 0 {
		return 0
	}

	groups := make([][]Entry[K, V], len(c.shards))
	for _, e := range entries {
		i := c.shardIndex(e.Key)
		groups[i] = append(groups[i], e)
	}

	var added atomic.Int64

	insert := func(i int) {
		s := &c.shards[i]
		n := 0
		s.mu.Lock()
		for _, e := range groups[i] {
			if _, ok := s.items[e.Key]; !ok {
				n++
			}
			s.items[e.Key] = e.Value
		}
		s.mu.Unlock()
		added.Add(int64(n))
	}

	nonEmpty := 0
	for _, g := range groups {
		if len(g) > 0 {
			nonEmpty++
		}
	}

	if !c.parallel || nonEmpty < 2 {
		for i := range groups {
			if len(groups[i]) > 0 {
				insert(i)
			}
		}
		return int(added.Load())
	}

	ctx := context.Background()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range groups {
		if len(groups[i]) == 0 {
			continue
		}
		g.Go(func() error {
			if err := c.rc.AcquireBackground(ctx); err != nil {
				return err
			}
			defer c.rc.ReleaseBackground()
			insert(i)
			return nil
		})
	}

	// Workers only fail on a canceled background context, which cannot happen here.
	_ = g.Wait()

	return int(added.Load())
}

// Clear removes all entries. Shards are cleared one at a time.
func (c *ShardedCache[K, V]) Clear() {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		s.items = make(map[K]V, c.shardCap)
		s.mu.Unlock()
	}
}

// Len returns the total number of entries. Under concurrent writes the
// result is a sum of per-shard snapshots.
func (c *ShardedCache[K, V]) Len() int {
	total := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		total += len(s.items)
		s.mu.RUnlock()
	}
	return total
}

// IsEmpty reports whether no shard holds an entry.
func (c *ShardedCache[K, V]) IsEmpty() bool {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		n := len(s.items)
		s.mu.RUnlock()
		if n > 0 {
			return false
		}
	}
	return true
}

// ShardLens returns the number of entries per shard.
func (c *ShardedCache[K, V]) ShardLens() []int {
	lens := make([]int, len(c.shards))
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		lens[i] = len(s.items)
		s.mu.RUnlock()
	}
	return lens
}

// NumShards returns the shard count.
func (c *ShardedCache[K, V]) NumShards() int {
	return len(c.shards)
}

// Stats returns hit/miss counters and the current size.
func (c *ShardedCache[K, V]) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.Len(),
		Shards:  len(c.shards),
	}
}

// ResetStats zeroes the hit/miss counters.
func (c *ShardedCache[K, V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
}
