package domain

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a yyyy-mm-dd date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a yyyy-mm-dd date", ErrInvalidDateRange, s)
	}
	return t, nil
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// TotalDays is the inclusive length of [start, end].
func TotalDays(start, end time.Time) int {
	return DaysBetween(start, end) + 1
}

// Overlaps reports whether the inclusive ranges [s1,e1] and [s2,e2] share a day.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return !(Day(e1).Before(Day(s2)) || Day(s1).After(Day(e2)))
}
