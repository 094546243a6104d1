package register

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
)

// MaxDayOffset bounds Date32 offsets accepted by DateFromDays (about 70
// years either side of the epoch).
const MaxDayOffset = 25567

const secondsPerDay = 24 * 60 * 60

var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// DateFromDays converts a Date32 day offset to a UTC midnight time.
func DateFromDays(days int32) (time.Time, error) {
	if days < -MaxDayOffset || days > MaxDayOffset {
		return time.Time{}, fmt.Errorf("%w: day offset %d outside ±%d", ErrInvalidFormat, days, MaxDayOffset)
	}
	return epoch.AddDate(0, 0, int(days)), nil
}

// DaysFromDate converts a date to its Date32 day offset. The time of day is
// ignored.
func DaysFromDate(t time.Time) (int32, error) {
	d := Truncate(t)
	secs := d.Unix()
	days := secs / secondsPerDay
	if days < -MaxDayOffset || days > MaxDayOffset {
		return 0, fmt.Errorf("%w: date %s outside ±%d days of epoch", ErrInvalidFormat, d.Format(time.DateOnly), MaxDayOffset)
	}
	return int32(days), nil
}

// Truncate drops the time of day and location, keeping the calendar date.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func date32(v arrow.Date32) (time.Time, error) {
	return DateFromDays(int32(v))
}
