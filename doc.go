// Package regcov resolves point-in-time covariates from administrative
// registers held in memory as Arrow records.
//
// A Registry owns register partitions (employment, income, population and
// education), a family relation index and a cache of resolved covariates.
// Given a person and a date it returns the attribute values valid at that
// date for the person and both parents.
//
// # Quick Start
//
//	reg := regcov.New(regcov.WithLogger(regcov.NewTextLogger(slog.LevelInfo)))
//	defer reg.Close()
//
//	_ = reg.AddBefData("202303", befRecords)   // quarter ending March 2023
//	_ = reg.AddIndData("2023", indRecords)     // calendar year 2023
//	_ = reg.LoadFamilyRelations(familyRecords)
//
//	snap, err := reg.GetCovariatesAtDate("010100-1234", date)
//	if errors.Is(err, regcov.ErrNoFamilyRelation) {
//	    // person unknown to the family index
//	}
//
// # Period Keys
//
// Annual registers (akm, ind) are keyed "YYYY". The population register
// (bef) is keyed "YYYYMM" with MM the quarter-end month. A lookup reads
// exactly the partition its date falls into. Education (uddf) partitions
// may use any key; they are scanned in key order and the latest
// observation valid at the query date wins.
//
// # Absence
//
// Missing data is not an error. A nil covariate or a nil snapshot field
// means the value is unknown at that date. Errors report invalid input,
// malformed records or missing family relations.
//
// # Caching
//
// Single lookups go through a sharded cache that also remembers absent
// values. Prefetch warms it in bulk:
//
//	n, err := reg.Prefetch(ctx, pnrs, covariate.Types(), dates)
//
// Loading a partition clears the cache.
package regcov
