package regcov

import (
	"log/slog"

	"github.com/hupe1980/regcov/cache"
	"github.com/hupe1980/regcov/resource"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	controller       *resource.Controller
	observers        []cache.Observer
	numShards        int
	cacheCapacity    int
	parallelBatch    bool
	rowMemoSize      int
}

// Option configures Registry construction.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &regcov.BasicMetricsCollector{}
//	reg := regcov.New(regcov.WithMetricsCollector(metrics))
//	// ... use reg ...
//	stats := metrics.GetStats()
//	fmt.Printf("Hits: %d, Misses: %d\n", stats.LookupHits, stats.LookupMisses)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithCacheObserver registers an additional observer of cache events,
// e.g. the Prometheus observer from metrics/prometheus.
func WithCacheObserver(obs cache.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := regcov.NewJSONLogger(slog.LevelInfo)
//	reg := regcov.New(regcov.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController shares a resource controller with the registry.
// It accounts for partition memory (and enforces its limit), bounds batch
// insert workers and paces Prefetch lookups.
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   8 << 30,
//	    ResolveLimitPerSec: 50_000,
//	})
//	reg := regcov.New(regcov.WithResourceController(rc))
//	// ...
//	fmt.Println("peak bytes:", rc.PeakMemory())
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithNumShards sets the number of cache shards.
// Defaults to max(GOMAXPROCS, 4).
func WithNumShards(n int) Option {
	return func(o *options) {
		o.numShards = n
	}
}

// WithCacheCapacity pre-sizes the cache for about n entries.
func WithCacheCapacity(n int) Option {
	return func(o *options) {
		o.cacheCapacity = n
	}
}

// WithParallelBatch toggles per-shard goroutines for batch cache inserts.
// Enabled by default.
func WithParallelBatch(enabled bool) Option {
	return func(o *options) {
		o.parallelBatch = enabled
	}
}

// WithRowMemoSize sets the per-partition row lookup memo size.
// Zero disables memoization.
func WithRowMemoSize(n int) Option {
	return func(o *options) {
		o.rowMemoSize = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		parallelBatch:    true,
		rowMemoSize:      -1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
