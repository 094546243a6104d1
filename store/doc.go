// Package store resolves covariates for a person at a point in time from
// register partitions held in memory.
//
// Each register maps period keys to partitions. A lookup derives the
// period key from the query date and the register's granularity and reads
// only that partition; there is no fallback to neighbouring periods.
// Education is the exception: its partitions are event-scoped, so all of
// them are scanned and the latest observation valid on the query date is
// returned.
//
//	st := store.New()
//	if err := st.AddBefData("202303", records); err != nil {
//	    return err
//	}
//	c, err := st.Covariate("010100-1234", covariate.Demographics, date)
//
// A nil covariate with a nil error means the person has no value for that
// date. Errors are reserved for invalid input and malformed data.
package store
