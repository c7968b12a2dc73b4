package domain

import "time"

// ReadingGoal is a reader's target for books finished in a calendar year.
// Goals are opt-in; CurrentBooks is derived.
type ReadingGoal struct {
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ID           string    `json:"id"`
	ReaderID     string    `json:"reader_id"`
	Year         int       `json:"year"`
	TargetBooks  int       `json:"target_books"`
	CurrentBooks int       `json:"current_books"`
}

// Achieved reports whether the target has been met.
func (g *ReadingGoal) Achieved() bool {
	return g.TargetBooks > 0 && g.CurrentBooks >= g.TargetBooks
}
