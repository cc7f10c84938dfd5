package schedule

import (
	"time"
)

// =============================================================================
// ISO DATE HELPERS
// =============================================================================
// The whole engine keys on ISO day strings. String comparison on them is a
// valid temporal comparison, which keeps map keys and sort functions trivial.

const dayLayout = "2006-01-02"

// ParseDate parses an ISO day string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dayLayout, s)
}

// FormatDate renders t as an ISO day string.
func FormatDate(t time.Time) string {
	return t.Format(dayLayout)
}

// Today returns the current date as an ISO day string.
func Today() string {
	return FormatDate(time.Now())
}

// AddDays shifts an ISO date by n calendar days. Invalid input is returned
// unchanged; the caller is expected to hold dates it loaded or generated.
func AddDays(date string, n int) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return FormatDate(t.AddDate(0, 0, n))
}

// Weekday returns the weekday of an ISO date (Sunday = 0).
func Weekday(date string) time.Weekday {
	t, err := ParseDate(date)
	if err != nil {
		return time.Sunday
	}
	return t.Weekday()
}

// DateRange lists every date from start to end inclusive. Returns nil when
// either bound is missing or end precedes start.
func DateRange(start, end string) []string {
	if start == "" || end == "" || end < start {
		return nil
	}
	from, err := ParseDate(start)
	if err != nil {
		return nil
	}
	to, err := ParseDate(end)
	if err != nil {
		return nil
	}
	var dates []string
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 0, 1) {
		dates = append(dates, FormatDate(cur))
	}
	return dates
}
