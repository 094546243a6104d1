package cache

import (
	"runtime"

	"github.com/hupe1980/regcov/resource"
)

const minShards = 4

type options struct {
	numShards     int
	capacity      int
	parallelBatch bool
	rc            *resource.Controller
}

func defaultOptions() options {
	return options{
		numShards:     max(runtime.GOMAXPROCS(0), minShards),
		parallelBatch: true,
	}
}

// Option configures a ShardedCache.
type Option func(*options)

// WithNumShards sets the number of shards. Values below 1 are ignored.
func WithNumShards(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.numShards = n
		}
	}
}

// WithCapacity pre-sizes the shard maps for roughly n entries in total.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithParallelBatch toggles the per-shard goroutine fan-out in InsertBatch.
// Enabled by default.
func WithParallelBatch(enabled bool) Option {
	return func(o *options) {
		o.parallelBatch = enabled
	}
}

// WithController bounds batch workers by the controller's background slots.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}
