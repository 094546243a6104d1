package regcov

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/regcov/cache"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems. The
// metrics/prometheus package provides a cache.Observer for Prometheus;
// register it with WithCacheObserver.
type MetricsCollector interface {
	// RecordLoad is called after each register partition load.
	RecordLoad(register string, records int, duration time.Duration, err error)

	// RecordLookup is called for each cached covariate lookup.
	// hit is false when the value had to be resolved.
	RecordLookup(hit bool)

	// RecordResolve is called after each resolution against the registers.
	RecordResolve(duration time.Duration, err error)

	// RecordPrefetch is called after each bulk cache load.
	RecordPrefetch(requested, loaded int, duration time.Duration, err error)

	// RecordSnapshot is called after each snapshot composition.
	RecordSnapshot(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(string, int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordLookup(bool)                             {}
func (NoopMetricsCollector) RecordResolve(time.Duration, error)            {}
func (NoopMetricsCollector) RecordPrefetch(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSnapshot(time.Duration, error)           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount          atomic.Int64
	LoadErrors         atomic.Int64
	LoadedRecords      atomic.Int64
	LookupHits         atomic.Int64
	LookupMisses       atomic.Int64
	ResolveCount       atomic.Int64
	ResolveErrors      atomic.Int64
	ResolveTotalNanos  atomic.Int64
	PrefetchCount      atomic.Int64
	PrefetchRequested  atomic.Int64
	PrefetchLoaded     atomic.Int64
	PrefetchErrors     atomic.Int64
	SnapshotCount      atomic.Int64
	SnapshotErrors     atomic.Int64
	SnapshotTotalNanos atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ string, records int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadedRecords.Add(int64(records))
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(hit bool) {
	if hit {
		b.LookupHits.Add(1)
	} else {
		b.LookupMisses.Add(1)
	}
}

// RecordResolve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordResolve(duration time.Duration, err error) {
	b.ResolveCount.Add(1)
	b.ResolveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ResolveErrors.Add(1)
	}
}

// RecordPrefetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPrefetch(requested, loaded int, _ time.Duration, err error) {
	b.PrefetchCount.Add(1)
	b.PrefetchRequested.Add(int64(requested))
	b.PrefetchLoaded.Add(int64(loaded))
	if err != nil {
		b.PrefetchErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	b.SnapshotTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:         b.LoadCount.Load(),
		LoadErrors:        b.LoadErrors.Load(),
		LoadedRecords:     b.LoadedRecords.Load(),
		LookupHits:        b.LookupHits.Load(),
		LookupMisses:      b.LookupMisses.Load(),
		ResolveCount:      b.ResolveCount.Load(),
		ResolveErrors:     b.ResolveErrors.Load(),
		ResolveAvgNanos:   avg(b.ResolveTotalNanos.Load(), b.ResolveCount.Load()),
		PrefetchCount:     b.PrefetchCount.Load(),
		PrefetchRequested: b.PrefetchRequested.Load(),
		PrefetchLoaded:    b.PrefetchLoaded.Load(),
		PrefetchErrors:    b.PrefetchErrors.Load(),
		SnapshotCount:     b.SnapshotCount.Load(),
		SnapshotErrors:    b.SnapshotErrors.Load(),
		SnapshotAvgNanos:  avg(b.SnapshotTotalNanos.Load(), b.SnapshotCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount         int64
	LoadErrors        int64
	LoadedRecords     int64
	LookupHits        int64
	LookupMisses      int64
	ResolveCount      int64
	ResolveErrors     int64
	ResolveAvgNanos   int64
	PrefetchCount     int64
	PrefetchRequested int64
	PrefetchLoaded    int64
	PrefetchErrors    int64
	SnapshotCount     int64
	SnapshotErrors    int64
	SnapshotAvgNanos  int64
}

// metricsObserver forwards cache events to a MetricsCollector and any
// extra observers.
type metricsObserver struct {
	mc     MetricsCollector
	extras []cache.Observer
}

func (m *metricsObserver) OnHit() {
	m.mc.RecordLookup(true)
	for _, o := range m.extras {
		o.OnHit()
	}
}

func (m *metricsObserver) OnMiss() {
	m.mc.RecordLookup(false)
	for _, o := range m.extras {
		o.OnMiss()
	}
}

func (m *metricsObserver) OnLoad(d time.Duration, err error) {
	m.mc.RecordResolve(d, err)
	for _, o := range m.extras {
		o.OnLoad(d, err)
	}
}

func (m *metricsObserver) OnBulkLoad(requested, loaded int, d time.Duration, err error) {
	m.mc.RecordPrefetch(requested, loaded, d, err)
	for _, o := range m.extras {
		o.OnBulkLoad(requested, loaded, d, err)
	}
}
