package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/pagebound-server/internal/domain"
	domainerrors "github.com/listenupapp/pagebound-server/internal/errors"
	"github.com/listenupapp/pagebound-server/internal/id"
	"github.com/listenupapp/pagebound-server/internal/review"
	"github.com/listenupapp/pagebound-server/internal/sse"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// RecordResult is the persisted record plus any badges the change earned.
type RecordResult struct {
	Record    *domain.ReadingRecord  `json:"record"`
	NewBadges []*domain.AwardedBadge `json:"new_badges"`
}

// ReadingService owns the reading record lifecycle. Every write is a
// transition; after the record is persisted the transition fans out to the
// rating, badge, streak and goal/challenge recomputations in that order.
// Fan-out failures are logged and never fail the write; the reconciler
// repairs whatever they leave behind.
type ReadingService struct {
	store    store.Store
	ratings  *RatingAggregator
	badges   *BadgeEvaluator
	streaks  *StreakTracker
	progress *ProgressUpdater
	activity *ActivityService
	index    JournalIndexer
	reviews  *review.Normalizer
	events   EventEmitter
	clock    Clock
	logger   *slog.Logger
}

// ReadingDeps groups the collaborators of a ReadingService.
type ReadingDeps struct {
	Store    store.Store
	Ratings  *RatingAggregator
	Badges   *BadgeEvaluator
	Streaks  *StreakTracker
	Progress *ProgressUpdater
	Activity *ActivityService
	Index    JournalIndexer
	Reviews  *review.Normalizer
	Events   EventEmitter
	Clock    Clock
	Logger   *slog.Logger
}

// NewReadingService creates a new reading service.
func NewReadingService(d ReadingDeps) *ReadingService {
	if d.Index == nil {
		d.Index = nopIndexer{}
	}
	if d.Reviews == nil {
		d.Reviews = review.NewNormalizer()
	}
	return &ReadingService{
		store:    d.Store,
		ratings:  d.Ratings,
		badges:   d.Badges,
		streaks:  d.Streaks,
		progress: d.Progress,
		activity: d.Activity,
		index:    d.Index,
		reviews:  d.Reviews,
		events:   emitterOrNop(d.Events),
		clock:    d.Clock,
		logger:   d.Logger,
	}
}

// AddRecord puts a book on the reader's list. The record starts as
// WANT_TO_READ and u is applied as a transition from "no record", so adding
// a book straight to FINISHED fans out like finishing it.
func (s *ReadingService) AddRecord(ctx context.Context, readerID, bookID string, u domain.RecordUpdate) (*RecordResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u = u.InZone(s.clock.Location())
	if err := u.Validate(); err != nil {
		return nil, validationError(err)
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, mapStoreError(err, "book not found")
	}

	recordID, err := id.Generate(id.PrefixRecord)
	if err != nil {
		return nil, fmt.Errorf("generate record ID: %w", err)
	}

	s.normalizeReview(&u)
	rec := domain.NewReadingRecord(recordID, readerID, bookID, s.clock.Now())
	t, err := domain.ApplyUpdate(rec, u, s.clock.Today(), s.clock.Now())
	if err != nil {
		return nil, validationError(err)
	}
	t.Before = nil

	if err := s.store.CreateRecord(ctx, rec); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("book is already on your list")
		}
		return nil, fmt.Errorf("create record: %w", err)
	}

	s.logger.Info("record created",
		"record_id", rec.ID,
		"reader_id", readerID,
		"book_id", bookID,
		"status", rec.Status,
	)

	badges := s.fanOut(ctx, t, book)
	return &RecordResult{Record: rec, NewBadges: badges}, nil
}

// UpdateRecord applies a partial update to a record the reader owns.
// Nothing is written if validation fails.
func (s *ReadingService) UpdateRecord(ctx context.Context, readerID, recordID string, u domain.RecordUpdate) (*RecordResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := s.ownedRecord(ctx, readerID, recordID)
	if err != nil {
		return nil, err
	}

	u = u.InZone(s.clock.Location())
	s.normalizeReview(&u)
	t, err := domain.ApplyUpdate(rec, u, s.clock.Today(), s.clock.Now())
	if err != nil {
		return nil, validationError(err)
	}

	if err := s.store.UpdateRecord(ctx, rec); err != nil {
		return nil, mapStoreError(err, "record not found")
	}

	s.logger.Info("record updated",
		"record_id", rec.ID,
		"reader_id", readerID,
		"old_status", t.OldStatus(),
		"new_status", t.NewStatus(),
	)

	book := s.bookFor(ctx, rec.BookID)
	badges := s.fanOut(ctx, t, book)
	return &RecordResult{Record: rec, NewBadges: badges}, nil
}

// DeleteRecord removes a record the reader owns. It fans out as a
// transition away from the record's last status, using its last book and
// finish date.
func (s *ReadingService) DeleteRecord(ctx context.Context, readerID, recordID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rec, err := s.ownedRecord(ctx, readerID, recordID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteRecord(ctx, recordID); err != nil {
		return mapStoreError(err, "record not found")
	}

	s.logger.Info("record deleted",
		"record_id", recordID,
		"reader_id", readerID,
		"status", rec.Status,
	)

	s.fanOut(ctx, domain.Transition{Before: rec}, nil)
	return nil
}

// GetRecord returns a record the reader owns.
func (s *ReadingService) GetRecord(ctx context.Context, readerID, recordID string) (*domain.ReadingRecord, error) {
	return s.ownedRecord(ctx, readerID, recordID)
}

// ListRecords returns the reader's records, optionally filtered by status.
func (s *ReadingService) ListRecords(ctx context.Context, readerID string, status domain.ReadingStatus) ([]*domain.ReadingRecord, error) {
	if status != "" && !status.Valid() {
		return nil, domainerrors.Validationf("unknown status %q", status)
	}
	return s.store.ListRecords(ctx, readerID, status)
}

func (s *ReadingService) ownedRecord(ctx context.Context, readerID, recordID string) (*domain.ReadingRecord, error) {
	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, mapStoreError(err, "record not found")
	}
	if rec.ReaderID != readerID {
		return nil, domainerrors.Forbidden("record belongs to another reader")
	}
	return rec, nil
}

func (s *ReadingService) normalizeReview(u *domain.RecordUpdate) {
	if u.ReviewText == nil {
		return
	}
	text := s.reviews.Normalize(*u.ReviewText)
	u.ReviewText = &text
}

func (s *ReadingService) bookFor(ctx context.Context, bookID string) *domain.Book {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		s.logger.Warn("failed to load book for fan-out", "book_id", bookID, "error", err)
		return nil
	}
	return book
}

// fanOut runs every recomputation the transition calls for and returns the
// badges awarded along the way. It never fails.
func (s *ReadingService) fanOut(ctx context.Context, t domain.Transition, book *domain.Book) []*domain.AwardedBadge {
	subject := t.After
	if subject == nil {
		subject = t.Before
	}
	readerID, bookID := subject.ReaderID, subject.BookID
	log := s.logger.With("reader_id", readerID, "book_id", bookID)

	newBadges := []*domain.AwardedBadge{}

	if t.NeedsRatingRecompute() {
		if _, err := s.ratings.Recompute(ctx, bookID); err != nil {
			log.Warn("rating recompute failed", "error", err)
		}
	}

	if t.EnteredFinished() || (t.StayedFinished() && t.ReviewAttached()) {
		awarded, err := s.badges.EvaluateFinished(ctx, readerID)
		if err != nil {
			log.Warn("badge evaluation failed", "error", err)
		}
		newBadges = append(newBadges, awarded...)
	}

	if t.EnteredFinished() {
		awarded, err := s.streaks.RecordFinish(ctx, readerID)
		if err != nil {
			log.Warn("streak update failed", "error", err)
		}
		newBadges = append(newBadges, awarded...)
	}

	for _, date := range distinctDates(t.GoalDates()) {
		if err := s.progress.RecomputeGoal(ctx, readerID, &date); err != nil {
			log.Warn("goal recompute failed", "year", date.Year(), "error", err)
		}
		if _, err := s.progress.RecomputeChallenges(ctx, readerID, &date); err != nil {
			log.Warn("challenge recompute failed", "date", domain.FormatDate(date), "error", err)
		}
	}

	if t.After != nil {
		s.activity.RecordTransition(ctx, t, book)
		if err := s.index.IndexRecord(t.After, book); err != nil {
			log.Warn("journal index failed", "error", err)
		}
		s.events.Emit(sse.NewRecordUpdatedEvent(t.After))
	} else {
		if err := s.index.RemoveRecord(t.Before.ID); err != nil {
			log.Warn("journal unindex failed", "error", err)
		}
		s.events.Emit(sse.NewRecordDeletedEvent(t.Before))
	}

	return newBadges
}

func distinctDates(dates []time.Time) []time.Time {
	out := dates[:0:0]
	for _, d := range dates {
		seen := false
		for _, o := range out {
			if o.Equal(d) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, d)
		}
	}
	return out
}
