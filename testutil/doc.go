// Package testutil provides testing utilities for regcov.
//
// This package is intended for use in tests and benchmarks only.
// It provides Arrow record builders for register extracts, a seeded RNG
// for synthetic identifiers and dates, and a mock covariate store.
//
// # Records
//
//	rec := testutil.NewRecord(
//	    testutil.Strings("PNR", "010100-1234", "020200-5678"),
//	    testutil.Int32s("ANTPERSF", 3, nil),
//	)
//	defer rec.Release()
//
// # Mock Store
//
//	store := testutil.NewMockStore()
//	store.On("Covariate", "p1", covariate.Income, date).Return(nil, nil)
//	...
//	store.AssertNumberOfCalls(t, "Covariate", 1)
package testutil
