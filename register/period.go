package register

import (
	"fmt"
	"strconv"
	"time"
)

// QuarterEndMonth maps a month to the last month of its calendar quarter
// (ceil(month/3)*3).
func QuarterEndMonth(m time.Month) int {
	return (int(m) + 2) / 3 * 3
}

// PeriodKey computes the partition key a date falls into.
// Event-scoped registers have no period key and yield "".
func PeriodKey(date time.Time, g Granularity) string {
	switch g {
	case Annual:
		return fmt.Sprintf("%04d", date.Year())
	case Quarterly:
		return fmt.Sprintf("%04d%02d", date.Year(), QuarterEndMonth(date.Month()))
	default:
		return ""
	}
}

// ValidatePeriodKey checks that key fits the granularity of register name.
func ValidatePeriodKey(name Name, key string) error {
	g, err := GranularityOf(name)
	if err != nil {
		return err
	}

	switch g {
	case Annual:
		if len(key) != 4 || !digits(key) {
			return &PeriodKeyError{Register: name, Key: key, Reason: "expected YYYY"}
		}
	case Quarterly:
		if len(key) != 6 || !digits(key) {
			return &PeriodKeyError{Register: name, Key: key, Reason: "expected YYYYMM"}
		}
		m, _ := strconv.Atoi(key[4:])
		if m < 3 || m > 12 || m%3 != 0 {
			return &PeriodKeyError{Register: name, Key: key, Reason: "month must be a quarter end (03, 06, 09, 12)"}
		}
	case EventScoped:
		if key == "" {
			return &PeriodKeyError{Register: name, Key: key, Reason: "empty key"}
		}
	}
	return nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
