package domain

import (
	"time"
	"unicode/utf8"
)

// ActivityKind is the type of feed entry.
type ActivityKind string

// Activity kinds.
const (
	ActivityStartedBook   ActivityKind = "started_book"
	ActivityFinishedBook  ActivityKind = "finished_book"
	ActivityReviewedBook  ActivityKind = "reviewed_book"
	ReviewExcerptMaxRunes              = 200
)

// Activity is an immutable feed entry. Book info is denormalized so the feed
// renders without joins.
type Activity struct {
	CreatedAt     time.Time    `json:"created_at"`
	Rating        *float64     `json:"rating,omitempty"`
	ID            string       `json:"id"`
	ReaderID      string       `json:"reader_id"`
	Kind          ActivityKind `json:"kind"`
	BookID        string       `json:"book_id"`
	BookTitle     string       `json:"book_title"`
	BookAuthor    string       `json:"book_author"`
	ReviewExcerpt string       `json:"review_excerpt,omitempty"`
}

// Excerpt truncates text to at most ReviewExcerptMaxRunes runes.
func Excerpt(text string) string {
	if utf8.RuneCountInString(text) <= ReviewExcerptMaxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:ReviewExcerptMaxRunes])
}

// ActivitiesFor returns the feed entries a transition produces. Book details
// are filled in by the caller.
func ActivitiesFor(t Transition) []ActivityKind {
	if t.After == nil {
		return nil
	}
	var kinds []ActivityKind
	if t.NewStatus() != t.OldStatus() {
		switch t.NewStatus() {
		case StatusCurrentlyReading:
			kinds = append(kinds, ActivityStartedBook)
		case StatusFinished:
			kinds = append(kinds, ActivityFinishedBook)
		}
	}
	if t.ReviewAttached() {
		kinds = append(kinds, ActivityReviewedBook)
	}
	return kinds
}
