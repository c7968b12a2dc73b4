package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOf(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 20:00 UTC on March 1 is already March 2 in Tokyo.
	instant := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), DayOf(instant, nil))
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), DayOf(instant, tokyo))
}

func TestCalendarDay(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// A plain calendar date is not shifted into the reference zone.
	date := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, date, CalendarDay(date, newYork))

	// 21:00 on Dec 31 in New York is Jan 1 in UTC.
	evening := time.Date(2025, 12, 31, 21, 0, 0, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), CalendarDay(evening, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), CalendarDay(evening, newYork))

	// Any other UTC instant is placed on its local day.
	late := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), CalendarDay(late, newYork))
}

func TestDaysBetween_AcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	before := DayOf(time.Date(2026, 3, 28, 12, 0, 0, 0, berlin), berlin)
	after := DayOf(time.Date(2026, 3, 30, 12, 0, 0, 0, berlin), berlin)
	assert.Equal(t, 2, DaysBetween(before, after))
	assert.Equal(t, -2, DaysBetween(after, before))
}

func TestParseAndFormatDate(t *testing.T) {
	d, err := ParseDate("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", FormatDate(d))

	for _, bad := range []string{"", "2026-2-28", "28/02/2026", "2026-02-30"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestYearBounds(t *testing.T) {
	start, end := YearBounds(2024)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)
}
