package prometheus

import (
	"time"

	"github.com/hupe1980/regcov/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// Observer implements cache.Observer with Prometheus collectors.
type Observer struct {
	lookups         *prometheus.CounterVec
	resolveLatency  prometheus.Histogram
	resolveErrors   prometheus.Counter
	prefetchKeys    *prometheus.CounterVec
	prefetchLatency prometheus.Histogram
	prefetchErrors  prometheus.Counter
}

var _ cache.Observer = (*Observer)(nil)

// NewObserver creates the collectors under namespace and registers them
// with reg. A nil reg skips registration.
func NewObserver(reg prometheus.Registerer, namespace string) (*Observer, error) {
	o := &Observer{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Covariate cache lookups by result.",
		}, []string{"result"}),
		resolveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "resolve_duration_seconds",
			Help:      "Latency of covariate resolutions against the registers.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		resolveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "resolve_errors_total",
			Help:      "Covariate resolutions that returned an error.",
		}),
		prefetchKeys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "prefetch_keys_total",
			Help:      "Keys seen by bulk loads, by outcome.",
		}, []string{"outcome"}),
		prefetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "prefetch_duration_seconds",
			Help:      "Latency of bulk cache loads.",
			Buckets:   prometheus.DefBuckets,
		}),
		prefetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "prefetch_errors_total",
			Help:      "Bulk loads stopped by an error.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{
			o.lookups, o.resolveLatency, o.resolveErrors,
			o.prefetchKeys, o.prefetchLatency, o.prefetchErrors,
		} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return o, nil
}

// OnHit implements cache.Observer.
func (o *Observer) OnHit() {
	o.lookups.WithLabelValues("hit").Inc()
}

// OnMiss implements cache.Observer.
func (o *Observer) OnMiss() {
	o.lookups.WithLabelValues("miss").Inc()
}

// OnLoad implements cache.Observer.
func (o *Observer) OnLoad(d time.Duration, err error) {
	o.resolveLatency.Observe(d.Seconds())
	if err != nil {
		o.resolveErrors.Inc()
	}
}

// OnBulkLoad implements cache.Observer.
func (o *Observer) OnBulkLoad(requested, loaded int, d time.Duration, err error) {
	o.prefetchKeys.WithLabelValues("loaded").Add(float64(loaded))
	o.prefetchKeys.WithLabelValues("skipped").Add(float64(requested - loaded))
	o.prefetchLatency.Observe(d.Seconds())
	if err != nil {
		o.prefetchErrors.Inc()
	}
}
