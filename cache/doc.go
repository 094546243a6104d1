// Package cache memoizes covariate lookups keyed by (PNR, type, date).
//
// A CovariateCache sits in front of any Store. Both found values and
// "nothing there" results are cached, so repeated queries for absent data
// never reach the store twice:
//
//	c := cache.New()
//	v, err := c.GetOrLoad(st, cache.NewKey("010100-1234", covariate.Income, date))
//
// Values handed out are clones; callers may modify them freely.
//
// # Bulk Loading
//
// BulkLoad warms the cache for the cartesian product of people, types and
// dates. Only keys not already cached are resolved, and all results are
// written with a single batch insert. Concurrent bulk loads are serialized.
package cache
