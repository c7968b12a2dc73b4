package domain

import "time"

// ChallengeKind selects what a challenge counts.
type ChallengeKind string

// Challenge kinds.
const (
	ChallengeBooks ChallengeKind = "BOOKS"
	ChallengePages ChallengeKind = "PAGES"
)

// Valid reports whether k is a known kind.
func (k ChallengeKind) Valid() bool {
	return k == ChallengeBooks || k == ChallengePages
}

// Challenge is a target over a date window. EndDate is inclusive.
type Challenge struct {
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
	CreatedAt   time.Time     `json:"created_at"`
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	CreatedBy   string        `json:"created_by"`
	Kind        ChallengeKind `json:"kind"`
	TargetValue int           `json:"target_value"`
	IsActive    bool          `json:"is_active"`
}

// Contains reports whether day falls inside the challenge window.
func (c *Challenge) Contains(day time.Time) bool {
	return !day.Before(c.StartDate) && !day.After(c.EndDate)
}

// UserChallenge is a reader's membership in a challenge.
type UserChallenge struct {
	JoinedAt     time.Time  `json:"joined_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ID           string     `json:"id"`
	ReaderID     string     `json:"reader_id"`
	ChallengeID  string     `json:"challenge_id"`
	CurrentValue int        `json:"current_value"`
	IsCompleted  bool       `json:"is_completed"`
}

// ApplyProgress sets the recomputed value and marks completion the first time
// the target is reached. Completion is never undone. Reports whether the
// membership became completed in this call.
func (uc *UserChallenge) ApplyProgress(value, target int, now time.Time) bool {
	uc.CurrentValue = value
	if uc.IsCompleted || value < target {
		return false
	}
	uc.IsCompleted = true
	uc.CompletedAt = &now
	return true
}
