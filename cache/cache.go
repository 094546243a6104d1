package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/regcov/covariate"
	internalcache "github.com/hupe1980/regcov/internal/cache"
	"github.com/hupe1980/regcov/internal/conv"
	"github.com/hupe1980/regcov/resource"
	"golang.org/x/sync/singleflight"
)

// Store resolves a single covariate. A nil result with a nil error means
// the value is absent.
type Store interface {
	Covariate(pnr string, t covariate.Type, date time.Time) (*covariate.Covariate, error)
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits       int64
	Misses     int64
	Loads      int64
	LoadErrors int64
	Entries    int
	Shards     int
}

// CovariateCache caches covariate lookups, including negative results.
type CovariateCache struct {
	entries *internalcache.ShardedCache[CacheKey, *covariate.Covariate]
	flight  singleflight.Group
	bulkMu  sync.Mutex

	rc       *resource.Controller
	logger   *slog.Logger
	observer Observer

	loads      atomic.Int64
	loadErrors atomic.Int64
}

// New creates an empty covariate cache.
func New(optFns ...Option) *CovariateCache {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	inner := []internalcache.Option{
		internalcache.WithParallelBatch(o.parallelBatch),
		internalcache.WithController(o.rc),
	}
	if o.numShards > 0 {
		inner = append(inner, internalcache.WithNumShards(o.numShards))
	}
	if o.capacity > 0 {
		inner = append(inner, internalcache.WithCapacity(o.capacity))
	}

	return &CovariateCache{
		entries:  internalcache.New[CacheKey, *covariate.Covariate](inner...),
		rc:       o.rc,
		logger:   o.logger,
		observer: o.observer,
	}
}

// Get returns a clone of the cached value. ok is true for negative entries
// too, in which case the value is nil.
func (c *CovariateCache) Get(key CacheKey) (*covariate.Covariate, bool) {
	v, ok := c.entries.Get(key)
	if ok {
		c.observer.OnHit()
	} else {
		c.observer.OnMiss()
	}
	return v.Clone(), ok
}

// Insert stores a clone of value. A nil value records a negative entry.
func (c *CovariateCache) Insert(key CacheKey, value *covariate.Covariate) {
	c.entries.Insert(key, value.Clone())
}

// Contains reports whether key is cached, negative entries included.
func (c *CovariateCache) Contains(key CacheKey) bool {
	return c.entries.ContainsKey(key)
}

// GetOrLoad returns the cached value for key or resolves it through store
// and caches the result, including a nil result. Store errors are returned
// unchanged and nothing is cached for the key.
//
// The store is called without any cache lock held. Concurrent misses on the
// same key share one store call; other keys are not blocked by it.
func (c *CovariateCache) GetOrLoad(store Store, key CacheKey) (*covariate.Covariate, error) {
	if v, ok := c.entries.Get(key); ok {
		c.observer.OnHit()
		return v.Clone(), nil
	}
	c.observer.OnMiss()

	res, err, _ := c.flight.Do(key.flightKey(), func() (any, error) {
		// A flight that finished between our miss and Do has already stored the key.
		if v, ok := c.entries.Peek(key); ok {
			return v, nil
		}

		start := time.Now()
		v, err := store.Covariate(key.PNR, key.Type, key.Date)
		c.recordLoad(time.Since(start), err)
		if err != nil {
			return nil, err
		}

		v, _ = c.entries.LoadOrStore(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*covariate.Covariate).Clone(), nil
}

func (c *CovariateCache) recordLoad(d time.Duration, err error) {
	c.loads.Add(1)
	if err != nil {
		c.loadErrors.Add(1)
	}
	c.observer.OnLoad(d, err)
}

// BulkLoad resolves every uncached key in pnrs × types × dates and stores
// the results with one batch insert. It returns the number of keys newly
// loaded. On the first store error or context cancellation it stops,
// stores what was resolved so far and returns that count with the error.
func (c *CovariateCache) BulkLoad(ctx context.Context, store Store, pnrs []string, types []covariate.Type, dates []time.Time) (int, error) {
	c.bulkMu.Lock()
	defer c.bulkMu.Unlock()

	start := time.Now()

	keys := make([]CacheKey, 0, len(pnrs)*len(types)*len(dates))
	seen := make(map[CacheKey]struct{}, cap(keys))
	for _, pnr := range pnrs {
		for _, t := range types {
			for _, date := range dates {
				k := NewKey(pnr, t, date)
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}

	// Key indices live in a 32-bit bitmap.
	n, err := conv.IntToUint32(len(keys))
	if err != nil {
		return 0, fmt.Errorf("cache: bulk load: %w", err)
	}

	cached := roaring.New()
	for i, k := range keys {
		if c.entries.ContainsKey(k) {
			cached.Add(uint32(i))
		}
	}
	missing := roaring.Flip(cached, 0, uint64(n))

	entries := make([]internalcache.Entry[CacheKey, *covariate.Covariate], 0, missing.GetCardinality())

	var loadErr error
	it := missing.Iterator()
	for it.HasNext() {
		k := keys[it.Next()]

		if err := ctx.Err(); err != nil {
			loadErr = err
			break
		}
		if err := c.rc.AcquireResolve(ctx, 1); err != nil {
			loadErr = err
			break
		}

		t0 := time.Now()
		v, err := store.Covariate(k.PNR, k.Type, k.Date)
		c.recordLoad(time.Since(t0), err)
		if err != nil {
			loadErr = fmt.Errorf("cache: bulk load %s: %w", k, err)
			break
		}
		entries = append(entries, internalcache.Entry[CacheKey, *covariate.Covariate]{Key: k, Value: v})
	}

	c.entries.InsertBatch(entries)

	elapsed := time.Since(start)
	c.observer.OnBulkLoad(len(keys), len(entries), elapsed, loadErr)

	if loadErr != nil {
		c.logger.Warn("bulk load stopped",
			slog.Int("requested", len(keys)),
			slog.Int("loaded", len(entries)),
			slog.String("error", loadErr.Error()),
		)
		return len(entries), loadErr
	}

	c.logger.Debug("bulk load complete",
		slog.Int("requested", len(keys)),
		slog.Uint64("cached", cached.GetCardinality()),
		slog.Int("loaded", len(entries)),
		slog.Duration("duration", elapsed),
	)
	return len(entries), nil
}

// Clear drops all entries. Counters are kept.
func (c *CovariateCache) Clear() {
	c.entries.Clear()
}

// Len returns the number of cached keys, negative entries included.
func (c *CovariateCache) Len() int {
	return c.entries.Len()
}

// Stats returns the current counters.
func (c *CovariateCache) Stats() Stats {
	s := c.entries.Stats()
	return Stats{
		Hits:       s.Hits,
		Misses:     s.Misses,
		Loads:      c.loads.Load(),
		LoadErrors: c.loadErrors.Load(),
		Entries:    s.Entries,
		Shards:     s.Shards,
	}
}

// Bind returns a Store that resolves through the cache and falls back to
// store on a miss. Binding a store already bound to c returns it unchanged.
func (c *CovariateCache) Bind(store Store) Store {
	if b, ok := store.(*boundStore); ok && b.cache == c {
		return b
	}
	return &boundStore{cache: c, store: store}
}

type boundStore struct {
	cache *CovariateCache
	store Store
}

func (b *boundStore) Covariate(pnr string, t covariate.Type, date time.Time) (*covariate.Covariate, error) {
	return b.cache.GetOrLoad(b.store, NewKey(pnr, t, date))
}
