package regcov

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/hupe1980/regcov/cache"
	"github.com/hupe1980/regcov/covariate"
	"github.com/hupe1980/regcov/register"
	"github.com/hupe1980/regcov/resource"
	"github.com/hupe1980/regcov/snapshot"
	"github.com/hupe1980/regcov/store"
)

// Registry resolves covariates and covariate snapshots from loaded
// register data. It is safe for concurrent use.
type Registry struct {
	store    *store.Store
	cache    *cache.CovariateCache
	resolver cache.Store
	composer *snapshot.Composer

	rc      *resource.Controller
	logger  *Logger
	metrics MetricsCollector

	closed atomic.Bool
}

// Stats is a point-in-time view of registry state.
type Stats struct {
	Cache       cache.Stats
	Periods     map[register.Name][]string
	FamilySize  int
	MemoryBytes int64
	PeakBytes   int64
	// MemoryLimit is the configured partition memory limit; 0 means none.
	MemoryLimit int64
}

// New creates an empty registry.
func New(optFns ...Option) *Registry {
	o := applyOptions(optFns)

	st := store.New(
		store.WithLogger(o.logger.Logger),
		store.WithController(o.controller),
		store.WithRowMemoSize(o.rowMemoSize),
	)

	cc := cache.New(
		cache.WithNumShards(o.numShards),
		cache.WithCapacity(o.cacheCapacity),
		cache.WithParallelBatch(o.parallelBatch),
		cache.WithController(o.controller),
		cache.WithLogger(o.logger.Logger),
		cache.WithObserver(&metricsObserver{mc: o.metricsCollector, extras: o.observers}),
	)

	r := &Registry{
		store:   st,
		cache:   cc,
		rc:      o.controller,
		logger:  o.logger,
		metrics: o.metricsCollector,
	}
	r.resolver = cc.Bind(st)
	r.composer = snapshot.NewDynamicComposer(
		r.resolver,
		func() snapshot.FamilyLookup { return st.Family() },
		snapshot.WithLogger(o.logger.Logger),
	)
	return r
}

// AddAkmData loads employment records for the year key "YYYY".
func (r *Registry) AddAkmData(periodKey string, records []arrow.Record) error {
	return r.AddPartition(register.AKM, periodKey, records)
}

// AddIndData loads income records for the year key "YYYY".
func (r *Registry) AddIndData(periodKey string, records []arrow.Record) error {
	return r.AddPartition(register.IND, periodKey, records)
}

// AddBefData loads population records for the quarter key "YYYYMM".
func (r *Registry) AddBefData(periodKey string, records []arrow.Record) error {
	return r.AddPartition(register.BEF, periodKey, records)
}

// AddUddfData loads education records. Any non-empty key is accepted.
func (r *Registry) AddUddfData(periodKey string, records []arrow.Record) error {
	return r.AddPartition(register.UDDF, periodKey, records)
}

// AddPartition loads records for a register and period key, replacing
// previous data for the same key. The cache is cleared on success.
// The registry retains the records; callers may release their references.
//
// Cached entries never expire. A Prefetch or Covariate call that resolved
// against the replaced partition and stores its result after the clear
// leaves that stale entry in the cache. Reload only while no queries run,
// or call ClearCache once concurrent queries have finished.
func (r *Registry) AddPartition(name register.Name, periodKey string, records []arrow.Record) error {
	if r.closed.Load() {
		return ErrClosed
	}

	start := time.Now()
	err := r.store.AddPartition(name, periodKey, records)
	r.metrics.RecordLoad(string(name), len(records), time.Since(start), err)
	r.logger.LogLoad(context.Background(), string(name), periodKey, len(records), err)
	if err != nil {
		return err
	}

	r.cache.Clear()
	return nil
}

// LoadFamilyRelations replaces the family index with one built from
// records. On error the previous index is kept.
func (r *Registry) LoadFamilyRelations(records []arrow.Record) error {
	if r.closed.Load() {
		return ErrClosed
	}

	err := r.store.LoadFamilyRelations(records)
	r.logger.LogFamilyLoad(context.Background(), r.store.Family().Len(), err)
	return err
}

// Covariate returns one covariate for pnr at date through the cache.
// A nil result with a nil error means the value is unknown.
func (r *Registry) Covariate(pnr string, t covariate.Type, date time.Time) (*covariate.Covariate, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	return r.resolver.Covariate(pnr, t, date)
}

// GetCovariatesAtDate returns the snapshot of pnr and both parents at date.
func (r *Registry) GetCovariatesAtDate(pnr string, date time.Time) (covariate.Snapshot, error) {
	if r.closed.Load() {
		return covariate.Snapshot{}, ErrClosed
	}

	start := time.Now()
	snap, err := r.composer.Snapshot(pnr, date)
	r.metrics.RecordSnapshot(time.Since(start), err)
	r.logger.LogSnapshot(context.Background(), pnr, date, err)
	return snap, err
}

// Prefetch warms the cache for every combination of pnrs, types and dates
// and returns the number of newly resolved entries.
//
// Prefetch must not overlap with AddPartition: entries it resolved from a
// partition replaced mid-call are inserted after the reload's cache clear
// and are kept until the next ClearCache.
func (r *Registry) Prefetch(ctx context.Context, pnrs []string, types []covariate.Type, dates []time.Time) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}

	n, err := r.cache.BulkLoad(ctx, r.store, pnrs, types, dates)
	r.logger.LogPrefetch(ctx, len(pnrs)*len(types)*len(dates), n, err)
	if err != nil {
		return n, fmt.Errorf("regcov: prefetch: %w", err)
	}
	return n, nil
}

// ClearCache drops all cached covariates.
func (r *Registry) ClearCache() {
	r.cache.Clear()
}

// Stats returns cache counters, loaded periods and memory figures.
func (r *Registry) Stats() Stats {
	periods := make(map[register.Name][]string, len(register.Names()))
	for _, name := range register.Names() {
		periods[name] = r.store.Periods(name)
	}
	return Stats{
		Cache:       r.cache.Stats(),
		Periods:     periods,
		FamilySize:  r.store.Family().Len(),
		MemoryBytes: r.store.MemoryUsage(),
		PeakBytes:   r.rc.PeakMemory(),
		MemoryLimit: r.rc.Config().MemoryLimitBytes,
	}
}

// Store returns the underlying store for direct, uncached access.
func (r *Registry) Store() *store.Store {
	return r.store
}

// Close releases all register data. Further calls return ErrClosed.
func (r *Registry) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.cache.Clear()
	return r.store.Close()
}
