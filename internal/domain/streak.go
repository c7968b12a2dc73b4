package domain

import "time"

// ReadingStreak is a reader's run of consecutive days with a finished book.
type ReadingStreak struct {
	LastReadDate  *time.Time `json:"last_read_date,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ReaderID      string     `json:"reader_id"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
}

// StreakOutcome describes what Advance did.
type StreakOutcome int

// Streak outcomes.
const (
	StreakStarted StreakOutcome = iota
	StreakUnchanged
	StreakExtended
	StreakReset
)

func (o StreakOutcome) String() string {
	switch o {
	case StreakStarted:
		return "started"
	case StreakUnchanged:
		return "unchanged"
	case StreakExtended:
		return "extended"
	case StreakReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Advance returns the streak that results from a finish on today.
// A nil current starts a new streak. today must be normalized by DayOf.
func Advance(current *ReadingStreak, readerID string, today time.Time) (ReadingStreak, StreakOutcome) {
	if current == nil {
		return ReadingStreak{
			ReaderID:      readerID,
			CurrentStreak: 1,
			LongestStreak: 1,
			LastReadDate:  &today,
		}, StreakStarted
	}

	next := *current
	next.LastReadDate = &today

	if current.LastReadDate == nil {
		next.CurrentStreak = 1
		next.LongestStreak = max(next.LongestStreak, 1)
		return next, StreakReset
	}

	switch gap := DaysBetween(*current.LastReadDate, today); {
	case gap == 0:
		return *current, StreakUnchanged
	case gap == 1:
		next.CurrentStreak = current.CurrentStreak + 1
		next.LongestStreak = max(current.LongestStreak, next.CurrentStreak)
		return next, StreakExtended
	case gap < 0:
		// Clock went backwards relative to the stored day; keep the row as is.
		return *current, StreakUnchanged
	default:
		next.CurrentStreak = 1
		next.LongestStreak = max(current.LongestStreak, 1)
		return next, StreakReset
	}
}
