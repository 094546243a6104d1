package testutil

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// PNR returns a synthetic identifier in DDMMYY-SSSS form.
func (r *RNG) PNR() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("%02d%02d%02d-%04d",
		1+r.rand.Intn(28), 1+r.rand.Intn(12), r.rand.Intn(100), r.rand.Intn(10000))
}

// UniquePNRs returns n distinct synthetic identifiers.
func (r *RNG) UniquePNRs(n int) []string {
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		p := r.PNR()
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// DateIn returns a UTC midnight date uniformly drawn from [from, to).
func (r *RNG) DateIn(from, to time.Time) time.Time {
	days := int(to.Sub(from).Hours() / 24)
	if days <= 0 {
		return Date(from.Year(), from.Month(), from.Day())
	}
	return Date(from.Year(), from.Month(), from.Day()+r.Intn(days))
}

// Date is a shorthand for a UTC midnight time.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
