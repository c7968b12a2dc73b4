package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// DayOf returns the calendar day of t as observed in loc, normalized to
// midnight UTC. Normalizing to UTC keeps day arithmetic free of DST drift;
// only the choice of which calendar day t falls on depends on loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalendarDay reduces a client-supplied date to a normalized day. A value
// already at midnight UTC is a calendar date and is kept as is; any other
// instant is placed on the day it falls on in loc.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if t.Location() == time.UTC && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t
	}
	return DayOf(t, loc)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Both values are expected to be normalized by DayOf.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD string into a normalized day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate formats a normalized day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// YearBounds returns [Jan 1 of year, Jan 1 of year+1) as normalized days.
func YearBounds(year int) (start, end time.Time) {
	start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}
