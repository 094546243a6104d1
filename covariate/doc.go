// Package covariate defines the covariate values resolved from registers,
// the per-person snapshot composed from them and time-varying value
// sequences with "as of" lookup.
package covariate
