package store

import (
	"io"
	"log/slog"

	"github.com/hupe1980/regcov/register"
	"github.com/hupe1980/regcov/resource"
)

type options struct {
	logger   *slog.Logger
	rc       *resource.Controller
	memoSize int
}

func defaultOptions() options {
	return options{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		memoSize: register.DefaultRowMemoSize,
	}
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger. Loads are logged at info level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithController sets the resource controller used to account for the
// memory retained by partitions.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithRowMemoSize sets the per-partition FindRow memo size. Zero disables
// memoization.
func WithRowMemoSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.memoSize = n
		}
	}
}
