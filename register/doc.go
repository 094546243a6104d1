// Package register provides columnar register partitions and null-aware
// attribute extraction over Arrow records.
//
// # Partitions
//
// A Partition holds the records of one register (bef, ind, akm, uddf) for
// one period key. Period keys are "YYYY" for annual registers and "YYYYMM"
// (quarter-end month) for quarterly registers:
//
//	p, err := register.NewPartition(register.BEF, "202303", records)
//	if err != nil {
//	    return err
//	}
//	defer p.Release()
//
//	if row, ok := p.FindRow("010100-1234"); ok {
//	    size, ok := row.Int32("ANTPERSF")
//	}
//
// # Row Lookup
//
// FindRow scans the records in order. It tries the canonical identifier
// column PNR first and the fallback CPR second; for each name an exact
// column match is tried before a case-insensitive one. The first matching
// row wins. Results are memoized in a bounded LRU, which is safe because a
// partition is never mutated after construction.
//
// # Extraction
//
// Value and the RowRef accessors return ok=false for a missing column, a
// null slot or a column of a different Arrow type. Absence is never turned
// into a zero value.
//
// Dates are Date32 day offsets from the Unix epoch. DateFromDays rejects
// offsets outside a ±25567 day window (roughly 140 years) with
// ErrInvalidFormat instead of wrapping.
package register
