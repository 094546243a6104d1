package store

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/hupe1980/regcov/covariate"
	"github.com/hupe1980/regcov/family"
	"github.com/hupe1980/regcov/register"
	"github.com/hupe1980/regcov/resource"
)

// Store holds register partitions and the family index.
//
// Loads take the write lock; lookups hold the read lock for the whole
// extraction so a partition cannot be released under a reader.
type Store struct {
	mu         sync.RWMutex
	partitions map[register.Name]map[string]*register.Partition
	family     *family.Index

	logger   *slog.Logger
	rc       *resource.Controller
	memoSize int
}

// New creates an empty store.
func New(optFns ...Option) *Store {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	s := &Store{
		partitions: make(map[register.Name]map[string]*register.Partition, len(register.Names())),
		logger:     o.logger,
		rc:         o.rc,
		memoSize:   o.memoSize,
	}
	for _, name := range register.Names() {
		s.partitions[name] = make(map[string]*register.Partition)
	}
	return s
}

// AddAkmData loads an employment partition for the year key "YYYY".
func (s *Store) AddAkmData(periodKey string, records []arrow.Record) error {
	return s.AddPartition(register.AKM, periodKey, records)
}

// AddIndData loads an income partition for the year key "YYYY".
func (s *Store) AddIndData(periodKey string, records []arrow.Record) error {
	return s.AddPartition(register.IND, periodKey, records)
}

// AddBefData loads a population partition for the quarter key "YYYYMM".
func (s *Store) AddBefData(periodKey string, records []arrow.Record) error {
	return s.AddPartition(register.BEF, periodKey, records)
}

// AddUddfData loads an education partition. Any non-empty key is accepted.
func (s *Store) AddUddfData(periodKey string, records []arrow.Record) error {
	return s.AddPartition(register.UDDF, periodKey, records)
}

// AddPartition validates and stores records under (name, periodKey),
// replacing and releasing any partition previously stored there.
func (s *Store) AddPartition(name register.Name, periodKey string, records []arrow.Record) error {
	if _, err := register.GranularityOf(name); err != nil {
		return err
	}

	p, err := register.NewPartition(name, periodKey, records, register.WithRowMemoSize(s.memoSize))
	if err != nil {
		return fmt.Errorf("store: add %s/%s: %w", name, periodKey, err)
	}

	size := p.ApproxBytes()
	if !s.rc.TryAcquireMemory(size) {
		p.Release()
		return fmt.Errorf("store: add %s/%s (%d bytes): %w", name, periodKey, size, resource.ErrMemoryLimitExceeded)
	}

	s.mu.Lock()
	old := s.partitions[name][periodKey]
	s.partitions[name][periodKey] = p
	s.mu.Unlock()

	if old != nil {
		s.rc.ReleaseMemory(old.ApproxBytes())
		old.Release()
	}

	s.logger.Info("register partition loaded",
		slog.String("register", string(name)),
		slog.String("period", periodKey),
		slog.Int("records", p.NumRecords()),
		slog.Int64("rows", p.NumRows()),
		slog.Int64("bytes", size),
		slog.Bool("replaced", old != nil),
	)
	return nil
}

// LoadFamilyRelations builds a new family index from records and swaps it
// in. On error the previous index stays in place.
func (s *Store) LoadFamilyRelations(records []arrow.Record) error {
	idx, err := family.Load(records)
	if err != nil {
		return fmt.Errorf("store: load family relations: %w", err)
	}

	s.mu.Lock()
	s.family = idx
	s.mu.Unlock()

	s.logger.Info("family relations loaded", slog.Int("people", idx.Len()))
	return nil
}

// Family returns the current family index, or nil if none was loaded.
func (s *Store) Family() *family.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.family
}

// Periods returns the loaded period keys of a register in ascending order.
func (s *Store) Periods(name register.Name) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.partitions[name])
}

// Partition returns the partition stored under (name, periodKey). The
// partition is released when its key is reloaded or the store is closed.
func (s *Store) Partition(name register.Name, periodKey string) (*register.Partition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partitions[name][periodKey]
	return p, ok
}

// Covariate resolves one covariate for pnr at date. It returns (nil, nil)
// when no value exists.
func (s *Store) Covariate(pnr string, t covariate.Type, date time.Time) (*covariate.Covariate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch t {
	case covariate.Occupation:
		return s.occupation(pnr, date)
	case covariate.Income:
		return s.income(pnr, date)
	case covariate.Demographics:
		return s.demographics(pnr, date)
	case covariate.Education:
		return s.education(pnr, date)
	default:
		return nil, fmt.Errorf("%w: unknown covariate type %s", register.ErrInvalidOperation, t)
	}
}

// Resolve returns all covariate types for pnr at date. The first error
// aborts the call.
func (s *Store) Resolve(pnr string, date time.Time) (covariate.PersonCovariates, error) {
	var (
		pc  covariate.PersonCovariates
		err error
	)
	targets := []struct {
		t   covariate.Type
		dst **covariate.Covariate
	}{
		{covariate.Education, &pc.Education},
		{covariate.Income, &pc.Income},
		{covariate.Occupation, &pc.Occupation},
		{covariate.Demographics, &pc.Demographics},
	}
	for _, tg := range targets {
		if *tg.dst, err = s.Covariate(pnr, tg.t, date); err != nil {
			return covariate.PersonCovariates{}, err
		}
	}
	return pc, nil
}

// MemoryUsage returns the approximate bytes retained by all partitions.
func (s *Store) MemoryUsage() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, byKey := range s.partitions {
		for _, p := range byKey {
			n += p.ApproxBytes()
		}
	}
	return n
}

// Close releases all partitions and drops the family index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, byKey := range s.partitions {
		for key, p := range byKey {
			s.rc.ReleaseMemory(p.ApproxBytes())
			p.Release()
			delete(byKey, key)
		}
	}
	s.family = nil
	return nil
}

// lookup finds the row for pnr in the partition of a periodic register
// matching date. Callers hold the read lock.
func (s *Store) lookup(name register.Name, pnr string, date time.Time) (register.RowRef, bool) {
	g, err := register.GranularityOf(name)
	if err != nil {
		return register.RowRef{}, false
	}
	p, ok := s.partitions[name][register.PeriodKey(date, g)]
	if !ok {
		return register.RowRef{}, false
	}
	return p.FindRow(pnr)
}

func sortedKeys(m map[string]*register.Partition) []string {
	return slices.Sorted(maps.Keys(m))
}
