package models

import (
	"fmt"
	"time"
)

// DayLayout is the ISO day format used for date keys
const DayLayout = "2006-01-02"

// DayKey returns the ISO day of t in t's location
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses an ISO day in loc
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return d, nil
}

// StartOfDay truncates t to local midnight
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in a's location
func SameDay(a, b time.Time) bool {
	return DayKey(a) == DayKey(b.In(a.Location()))
}
