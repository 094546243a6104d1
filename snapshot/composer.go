package snapshot

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/regcov/covariate"
	"github.com/hupe1980/regcov/family"
	"github.com/hupe1980/regcov/register"
)

var (
	// ErrFamilyNotLoaded is returned when no family relations are available.
	ErrFamilyNotLoaded = fmt.Errorf("%w: family relations not loaded", register.ErrMissingData)
	// ErrNoFamilyRelation is returned when the person has no family relation.
	ErrNoFamilyRelation = fmt.Errorf("%w: no family relation", register.ErrMissingData)
)

// Resolver answers a single covariate lookup. A nil result with a nil
// error means the value is absent.
type Resolver interface {
	Covariate(pnr string, t covariate.Type, date time.Time) (*covariate.Covariate, error)
}

// FamilyLookup maps a person to their parents. *family.Index implements
// it, including a nil *family.Index, which reports Len() == 0.
type FamilyLookup interface {
	Parents(pnr string) (family.Parents, bool)
	Len() int
}

// FamilyFunc returns the current family lookup. It lets a composer follow
// an index that is replaced after construction.
type FamilyFunc func() FamilyLookup

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger. Parent lookup failures are logged at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// Composer builds covariate snapshots.
type Composer struct {
	resolver Resolver
	family   FamilyFunc
	logger   *slog.Logger
}

// NewComposer creates a composer over a fixed family lookup, which may be nil.
func NewComposer(resolver Resolver, fam FamilyLookup, opts ...Option) *Composer {
	return NewDynamicComposer(resolver, func() FamilyLookup { return fam }, opts...)
}

// NewDynamicComposer creates a composer that fetches the family lookup on
// every call.
func NewDynamicComposer(resolver Resolver, fam FamilyFunc, opts ...Option) *Composer {
	c := &Composer{
		resolver: resolver,
		family:   fam,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot resolves pnr's own covariates and those of both parents at
// date. Errors resolving the person's own covariates and missing family
// relations are returned; a parent whose covariates cannot be resolved
// is left empty.
func (c *Composer) Snapshot(pnr string, date time.Time) (covariate.Snapshot, error) {
	own, err := c.person(pnr, date, covariate.Types()...)
	if err != nil {
		return covariate.Snapshot{}, fmt.Errorf("snapshot %s: %w", pnr, err)
	}

	fam := c.family()
	if fam == nil || fam.Len() == 0 {
		return covariate.Snapshot{}, ErrFamilyNotLoaded
	}
	parents, ok := fam.Parents(pnr)
	if !ok {
		return covariate.Snapshot{}, fmt.Errorf("%w: %s", ErrNoFamilyRelation, pnr)
	}

	father := c.parent("father", parents.FatherID, date)
	mother := c.parent("mother", parents.MotherID, date)

	return covariate.NewSnapshot(date, own, father, mother), nil
}

// parentTypes are resolved for each parent; demographics are not copied
// into the snapshot.
var parentTypes = []covariate.Type{covariate.Income, covariate.Education, covariate.Occupation}

func (c *Composer) parent(role, pnr string, date time.Time) *covariate.PersonCovariates {
	if pnr == "" {
		return nil
	}
	pc, err := c.person(pnr, date, parentTypes...)
	if err != nil {
		c.logger.Debug("parent covariates unavailable",
			slog.String("role", role),
			slog.String("pnr", pnr),
			slog.Time("date", date),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return &pc
}

func (c *Composer) person(pnr string, date time.Time, types ...covariate.Type) (covariate.PersonCovariates, error) {
	var pc covariate.PersonCovariates
	for _, t := range types {
		v, err := c.resolver.Covariate(pnr, t, date)
		if err != nil {
			return covariate.PersonCovariates{}, fmt.Errorf("%s: %w", t, err)
		}
		switch t {
		case covariate.Education:
			pc.Education = v
		case covariate.Income:
			pc.Income = v
		case covariate.Occupation:
			pc.Occupation = v
		case covariate.Demographics:
			pc.Demographics = v
		}
	}
	return pc, nil
}
