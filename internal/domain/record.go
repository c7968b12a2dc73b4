package domain

import (
	"fmt"
	"time"
)

// ReadingStatus is where a reader currently stands with a book.
// No status is terminal; a record may move back to correct an entry.
type ReadingStatus string

// Reading statuses.
const (
	StatusWantToRead       ReadingStatus = "WANT_TO_READ"
	StatusCurrentlyReading ReadingStatus = "CURRENTLY_READING"
	StatusFinished         ReadingStatus = "FINISHED"
	StatusDidNotFinish     ReadingStatus = "DID_NOT_FINISH"
)

// Valid reports whether s is one of the four known statuses.
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusWantToRead, StatusCurrentlyReading, StatusFinished, StatusDidNotFinish:
		return true
	default:
		return false
	}
}

// Rating bounds (inclusive).
const (
	MinRating = 1.0
	MaxRating = 10.0
)

// ReadingRecord tracks one reader's progress through one book.
// There is at most one record per (ReaderID, BookID).
type ReadingRecord struct {
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Rating      *float64      `json:"rating,omitempty"`
	ReviewText  *string       `json:"review_text,omitempty"`
	Notes       *string       `json:"notes,omitempty"`
	StartDate   *time.Time    `json:"start_date,omitempty"`
	FinishDate  *time.Time    `json:"finish_date,omitempty"`
	CurrentPage *int          `json:"current_page,omitempty"`
	ID          string        `json:"id"`
	ReaderID    string        `json:"reader_id"`
	BookID      string        `json:"book_id"`
	Status      ReadingStatus `json:"status"`
	IsFavorite  bool          `json:"is_favorite"`
	IsPrivate   bool          `json:"is_private"`
}

// NewReadingRecord creates a record on the reader's want-to-read list.
func NewReadingRecord(id, readerID, bookID string, now time.Time) *ReadingRecord {
	return &ReadingRecord{
		ID:        id,
		ReaderID:  readerID,
		BookID:    bookID,
		Status:    StatusWantToRead,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsFinished reports whether the record counts as a finished book.
func (r *ReadingRecord) IsFinished() bool {
	return r.Status == StatusFinished
}

// HasReview reports whether the record carries non-empty review text.
func (r *ReadingRecord) HasReview() bool {
	return r.ReviewText != nil && *r.ReviewText != ""
}

// Clone returns a deep copy of the record.
func (r *ReadingRecord) Clone() *ReadingRecord {
	c := *r
	c.Rating = clonePtr(r.Rating)
	c.ReviewText = clonePtr(r.ReviewText)
	c.Notes = clonePtr(r.Notes)
	c.StartDate = clonePtr(r.StartDate)
	c.FinishDate = clonePtr(r.FinishDate)
	c.CurrentPage = clonePtr(r.CurrentPage)
	return &c
}

// RecordUpdate is a partial set of field changes. Nil fields are left
// untouched; ClearRating removes the rating, and an empty ReviewText
// removes the review.
type RecordUpdate struct {
	Status      *ReadingStatus
	Rating      *float64
	ClearRating bool
	ReviewText  *string
	Notes       *string
	StartDate   *time.Time
	FinishDate  *time.Time
	IsFavorite  *bool
	IsPrivate   *bool
	CurrentPage *int
}

// FieldError describes a single rejected field of a RecordUpdate.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ValidationErrors collects every rejected field of an update.
type ValidationErrors []*FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 1 {
		return v[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", v[0].Error(), len(v)-1)
}

// Fields returns the errors keyed by field name.
func (v ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, e := range v {
		out[e.Field] = e.Reason
	}
	return out
}

// Validate checks the update without applying it.
func (u RecordUpdate) Validate() error {
	var errs ValidationErrors
	if u.Status != nil && !u.Status.Valid() {
		errs = append(errs, &FieldError{Field: "status", Reason: fmt.Sprintf("must be one of %s, %s, %s, %s",
			StatusWantToRead, StatusCurrentlyReading, StatusFinished, StatusDidNotFinish)})
	}
	if u.Rating != nil && (*u.Rating < MinRating || *u.Rating > MaxRating) {
		errs = append(errs, &FieldError{Field: "rating", Reason: "must be between 1.0 and 10.0"})
	}
	if u.ClearRating && u.Rating != nil {
		errs = append(errs, &FieldError{Field: "rating", Reason: "cannot be set and cleared at once"})
	}
	if u.CurrentPage != nil && *u.CurrentPage < 0 {
		errs = append(errs, &FieldError{Field: "current_page", Reason: "must not be negative"})
	}
	if u.StartDate != nil && u.FinishDate != nil && u.FinishDate.Before(*u.StartDate) {
		errs = append(errs, &FieldError{Field: "finish_date", Reason: "must not be before start_date"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// InZone returns a copy of u with its start and finish dates reduced to
// calendar days in loc.
func (u RecordUpdate) InZone(loc *time.Location) RecordUpdate {
	if u.StartDate != nil {
		d := CalendarDay(*u.StartDate, loc)
		u.StartDate = &d
	}
	if u.FinishDate != nil {
		d := CalendarDay(*u.FinishDate, loc)
		u.FinishDate = &d
	}
	return u
}

// Transition captures the before and after of an applied update. Fan-out
// decisions are made purely from a Transition.
type Transition struct {
	// Before is nil when the record did not exist prior to the change.
	Before *ReadingRecord
	// After is nil when the record was deleted.
	After *ReadingRecord
}

// OldStatus returns the status before the change, or "" if there was no record.
func (t Transition) OldStatus() ReadingStatus {
	if t.Before == nil {
		return ""
	}
	return t.Before.Status
}

// NewStatus returns the status after the change, or "" if the record was deleted.
func (t Transition) NewStatus() ReadingStatus {
	if t.After == nil {
		return ""
	}
	return t.After.Status
}

// EnteredFinished is true when the record became FINISHED in this change.
func (t Transition) EnteredFinished() bool {
	return t.NewStatus() == StatusFinished && t.OldStatus() != StatusFinished
}

// LeftFinished is true when the record stopped being FINISHED (including deletion).
func (t Transition) LeftFinished() bool {
	return t.OldStatus() == StatusFinished && t.NewStatus() != StatusFinished
}

// StayedFinished is true when the record was and still is FINISHED.
func (t Transition) StayedFinished() bool {
	return t.OldStatus() == StatusFinished && t.NewStatus() == StatusFinished
}

// RatingChanged reports whether the rating value differs across the change.
func (t Transition) RatingChanged() bool {
	var before, after *float64
	if t.Before != nil {
		before = t.Before.Rating
	}
	if t.After != nil {
		after = t.After.Rating
	}
	return !equalPtr(before, after)
}

// PrivacyChanged reports whether the record's visibility flipped.
func (t Transition) PrivacyChanged() bool {
	return t.Before != nil && t.After != nil && t.Before.IsPrivate != t.After.IsPrivate
}

// NeedsRatingRecompute reports whether the book's public rating may have moved.
func (t Transition) NeedsRatingRecompute() bool {
	if t.EnteredFinished() || t.LeftFinished() {
		return true
	}
	return t.StayedFinished() && (t.RatingChanged() || t.PrivacyChanged())
}

// GoalDates returns the finish dates whose goal years must be recounted.
// Entering FINISHED uses the new finish date, leaving uses the prior one.
// A finish date moved while staying FINISHED yields both.
func (t Transition) GoalDates() []time.Time {
	var dates []time.Time
	switch {
	case t.EnteredFinished():
		if t.After.FinishDate != nil {
			dates = append(dates, *t.After.FinishDate)
		}
	case t.LeftFinished():
		if t.Before.FinishDate != nil {
			dates = append(dates, *t.Before.FinishDate)
		}
	case t.StayedFinished():
		if !equalPtr(t.Before.FinishDate, t.After.FinishDate) {
			if t.Before.FinishDate != nil {
				dates = append(dates, *t.Before.FinishDate)
			}
			if t.After.FinishDate != nil {
				dates = append(dates, *t.After.FinishDate)
			}
		}
	}
	return dates
}

// ReviewAttached is true when the change leaves the record with a review it
// did not previously carry, or with different review text.
func (t Transition) ReviewAttached() bool {
	if t.After == nil || !t.After.HasReview() {
		return false
	}
	if t.Before == nil || !t.Before.HasReview() {
		return true
	}
	return *t.Before.ReviewText != *t.After.ReviewText
}

// ApplyUpdate validates u and applies it to rec in place. Nothing is changed
// if validation fails. today is the reference-clock day used to default
// start and finish dates on entering a status.
//
// If the resulting status is not FINISHED, rating, review and finish date
// are cleared regardless of what was requested. A finish date that would
// land before the record's start date is rejected, whichever of the two the
// update touches.
func ApplyUpdate(rec *ReadingRecord, u RecordUpdate, today, now time.Time) (Transition, error) {
	if err := u.Validate(); err != nil {
		return Transition{}, err
	}

	before := rec.Clone()
	next := rec.Clone()

	if u.Status != nil {
		next.Status = *u.Status
	}
	if u.Rating != nil {
		next.Rating = clonePtr(u.Rating)
	}
	if u.ClearRating {
		next.Rating = nil
	}
	if u.ReviewText != nil {
		next.ReviewText = clonePtr(u.ReviewText)
	}
	if u.Notes != nil {
		next.Notes = clonePtr(u.Notes)
	}
	if u.StartDate != nil {
		next.StartDate = clonePtr(u.StartDate)
	}
	if u.FinishDate != nil {
		next.FinishDate = clonePtr(u.FinishDate)
	}
	if u.IsFavorite != nil {
		next.IsFavorite = *u.IsFavorite
	}
	if u.IsPrivate != nil {
		next.IsPrivate = *u.IsPrivate
	}
	if u.CurrentPage != nil {
		next.CurrentPage = clonePtr(u.CurrentPage)
	}

	if next.Status != before.Status {
		switch next.Status {
		case StatusCurrentlyReading:
			if next.StartDate == nil {
				next.StartDate = &today
			}
		case StatusFinished:
			if next.FinishDate == nil {
				next.FinishDate = &today
			}
		}
	}

	if next.Status != StatusFinished {
		next.Rating = nil
		next.ReviewText = nil
		next.FinishDate = nil
	}
	if next.ReviewText != nil && *next.ReviewText == "" {
		next.ReviewText = nil
	}

	if (u.StartDate != nil || u.FinishDate != nil) &&
		next.StartDate != nil && next.FinishDate != nil && next.FinishDate.Before(*next.StartDate) {
		return Transition{}, ValidationErrors{{Field: "finish_date", Reason: "must not be before start_date"}}
	}

	next.UpdatedAt = now
	*rec = *next
	return Transition{Before: before, After: rec.Clone()}, nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
