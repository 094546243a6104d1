package covariate

import (
	"slices"
	"time"
)

// TimeVaryingValue is one dated observation of a person's attribute.
type TimeVaryingValue[T any] struct {
	PNR   string
	Date  time.Time
	Value T
}

// Series is a date-ordered sequence of observations. The zero value is
// empty and ready to use. Series is not safe for concurrent mutation.
type Series[T any] struct {
	values []TimeVaryingValue[T]
}

// NewSeries builds a series from unordered observations. Observations with
// equal dates keep their input order.
func NewSeries[T any](values ...TimeVaryingValue[T]) *Series[T] {
	s := &Series[T]{values: slices.Clone(values)}
	slices.SortStableFunc(s.values, func(a, b TimeVaryingValue[T]) int {
		return a.Date.Compare(b.Date)
	})
	return s
}

// Add inserts v after every observation dated at or before v.Date.
func (s *Series[T]) Add(v TimeVaryingValue[T]) {
	i := s.upperBound(v.Date)
	s.values = slices.Insert(s.values, i, v)
}

// At returns the value of the last observation dated at or before date.
func (s *Series[T]) At(date time.Time) (T, bool) {
	i := s.upperBound(date)
	if i == 0 {
		var zero T
		return zero, false
	}
	return s.values[i-1].Value, true
}

// Len returns the number of observations.
func (s *Series[T]) Len() int { return len(s.values) }

// Values returns a copy of the observations in date order.
func (s *Series[T]) Values() []TimeVaryingValue[T] { return slices.Clone(s.values) }

// upperBound returns the index of the first observation dated after date.
func (s *Series[T]) upperBound(date time.Time) int {
	lo, hi := 0, len(s.values)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if s.values[mid].Date.After(date) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
