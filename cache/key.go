package cache

import (
	"fmt"
	"time"

	"github.com/hupe1980/regcov/covariate"
	"github.com/hupe1980/regcov/register"
)

// CacheKey identifies one covariate lookup.
type CacheKey struct {
	PNR  string
	Type covariate.Type
	Date time.Time
}

// NewKey builds a key with the date reduced to its UTC calendar day, so
// that equal dates in different locations or with a time of day map to
// the same entry.
func NewKey(pnr string, t covariate.Type, date time.Time) CacheKey {
	return CacheKey{PNR: pnr, Type: t, Date: register.Truncate(date)}
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.PNR, k.Type, k.Date.Format(time.DateOnly))
}

// flightKey encodes k for request de-duplication. Unlike String it cannot
// collide for identifiers containing the separator.
func (k CacheKey) flightKey() string {
	return fmt.Sprintf("%q/%d/%d", k.PNR, k.Type, k.Date.Unix())
}
