package cache

import "time"

// Observer receives cache events. Implementations must be safe for
// concurrent use.
type Observer interface {
	OnHit()
	OnMiss()
	// OnLoad is called after a single store resolution.
	OnLoad(d time.Duration, err error)
	// OnBulkLoad is called once per BulkLoad with the number of keys
	// requested and the number newly loaded.
	OnBulkLoad(requested, loaded int, d time.Duration, err error)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) OnHit()                                    {}
func (NoopObserver) OnMiss()                                   {}
func (NoopObserver) OnLoad(time.Duration, error)               {}
func (NoopObserver) OnBulkLoad(int, int, time.Duration, error) {}
