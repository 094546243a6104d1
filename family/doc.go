// Package family provides the family relation index: for each person the
// birth date, parent identifiers and family identifier.
//
// The index is built from Arrow records with the columns PNR and
// BIRTH_DATE (required) and FATHER_ID, FATHER_BIRTH_DATE, MOTHER_ID,
// MOTHER_BIRTH_DATE and FAMILY_ID (optional). Loading is all-or-nothing
// per call: a malformed row aborts the load and leaves the index as it was.
// Duplicate identifiers overwrite earlier rows.
//
// The index does not resolve parent attributes itself; the snapshot
// composer combines it with a covariate resolver.
package family
