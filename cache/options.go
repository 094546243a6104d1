package cache

import (
	"io"
	"log/slog"

	"github.com/hupe1980/regcov/resource"
)

type options struct {
	numShards     int
	capacity      int
	parallelBatch bool
	rc            *resource.Controller
	logger        *slog.Logger
	observer      Observer
}

func defaultOptions() options {
	return options{
		parallelBatch: true,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer:      NoopObserver{},
	}
}

// Option configures a CovariateCache.
type Option func(*options)

// WithNumShards sets the shard count. Defaults to max(GOMAXPROCS, 4).
func WithNumShards(n int) Option {
	return func(o *options) {
		o.numShards = n
	}
}

// WithCapacity pre-sizes the cache for about n entries.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithParallelBatch toggles the per-shard fan-out of batch inserts.
func WithParallelBatch(enabled bool) Option {
	return func(o *options) {
		o.parallelBatch = enabled
	}
}

// WithController sets the resource controller. Its background slots bound
// batch insert workers and its resolve limiter paces BulkLoad.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers an observer for cache events.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}
