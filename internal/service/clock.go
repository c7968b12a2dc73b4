package service

import (
	"time"

	"github.com/listenupapp/pagebound-server/internal/domain"
)

// Clock is the single reference clock. Every "today" in the engine
// (streak days, default start and finish dates) is the calendar day of
// Now in Location.
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock returns a wall clock whose days are cut in loc.
func NewClock(loc *time.Location) Clock {
	return NewClockAt(time.Now, loc)
}

// NewClockAt returns a clock driven by now.
func NewClockAt(now func() time.Time, loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{now: now, loc: loc}
}

// Now returns the current instant in UTC.
func (c Clock) Now() time.Time {
	return c.now().UTC()
}

// Today returns the current calendar day.
func (c Clock) Today() time.Time {
	return domain.DayOf(c.now(), c.loc)
}

// Location returns the zone that defines day boundaries.
func (c Clock) Location() *time.Location {
	return c.loc
}
