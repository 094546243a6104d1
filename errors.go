package regcov

import (
	"errors"

	"github.com/hupe1980/regcov/register"
	"github.com/hupe1980/regcov/resource"
	"github.com/hupe1980/regcov/snapshot"
)

var (
	// ErrMissingData is returned when required data (a column, the family
	// index, a family relation) is absent.
	ErrMissingData = register.ErrMissingData

	// ErrInvalidFormat is returned for malformed period keys, mismatched
	// schemas, wrong column types and out-of-range dates.
	ErrInvalidFormat = register.ErrInvalidFormat

	// ErrInvalidOperation is returned for unknown registers and covariate types.
	ErrInvalidOperation = register.ErrInvalidOperation

	// ErrFamilyNotLoaded is returned by GetCovariatesAtDate before
	// LoadFamilyRelations succeeded. It wraps ErrMissingData.
	ErrFamilyNotLoaded = snapshot.ErrFamilyNotLoaded

	// ErrNoFamilyRelation is returned by GetCovariatesAtDate for a person
	// absent from the family index. It wraps ErrMissingData.
	ErrNoFamilyRelation = snapshot.ErrNoFamilyRelation

	// ErrMemoryLimitExceeded is returned when loading a partition would
	// exceed the configured memory limit.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("regcov: registry closed")
)

// ColumnError describes a missing or mistyped column.
type ColumnError = register.ColumnError

// PeriodKeyError describes a period key that does not fit its register.
type PeriodKeyError = register.PeriodKeyError
