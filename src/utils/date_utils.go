package utils

import "time"

const (
	ISODateFormat = "2006-01-02"
	BRDateFormat  = "02/01/2006"
	MonthFormat   = "2006-01"
)

// ParseBRDate parses a Brazilian "DD/MM/YYYY" date.
func ParseBRDate(dateStr string) (time.Time, error) {
	return time.Parse(BRDateFormat, dateStr)
}

// ResolveDayMonth completes a printed "DD/MM" with the reference
// date's calendar year. Statements never print the year on item lines.
func ResolveDayMonth(day, month int, ref time.Time) time.Time {
	return time.Date(ref.Year(), time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Truncate strips the time-of-day, leaving a pure date in UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two nullable dates fall on the same
// calendar day, resolving a nil date to the fallback.
func SameDate(a, b *time.Time, fallback time.Time) bool {
	return resolveDate(a, fallback).Equal(resolveDate(b, fallback))
}

func resolveDate(t *time.Time, fallback time.Time) time.Time {
	if t == nil {
		return Truncate(fallback)
	}
	return Truncate(*t)
}
