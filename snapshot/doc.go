// Package snapshot composes a person's covariates and their parents'
// covariates at one date into a flat covariate.Snapshot.
//
// A Composer combines two independent inputs: a Resolver that answers
// single covariate lookups (a store.Store, or a cache bound to one) and a
// FamilyLookup that maps a person to their parents (a family.Index).
package snapshot
