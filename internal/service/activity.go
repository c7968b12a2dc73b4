package service

import (
	"context"
	"log/slog"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/id"
	"github.com/listenupapp/pagebound-server/internal/store"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// ActivityService turns record transitions into feed entries and hands them
// to a sink. Handoff failures are logged, never returned.
type ActivityService struct {
	store  store.Store
	sink   ActivitySink
	clock  Clock
	logger *slog.Logger
}

// NewActivityService creates an activity service. A nil sink writes entries
// straight to the store.
func NewActivityService(store store.Store, sink ActivitySink, clock Clock, logger *slog.Logger) *ActivityService {
	if sink == nil {
		sink = StoreSink{Store: store}
	}
	return &ActivityService{store: store, sink: sink, clock: clock, logger: logger}
}

// StoreSink delivers activities synchronously to the store.
type StoreSink struct {
	Store store.Activities
}

// Enqueue writes the activity.
func (s StoreSink) Enqueue(ctx context.Context, a *domain.Activity) error {
	return s.Store.CreateActivity(ctx, a)
}

// RecordTransition emits one entry per activity kind the transition
// produces: started, finished, reviewed.
func (s *ActivityService) RecordTransition(ctx context.Context, t domain.Transition, book *domain.Book) {
	kinds := domain.ActivitiesFor(t)
	if len(kinds) == 0 {
		return
	}
	rec := t.After

	for _, kind := range kinds {
		activityID, err := id.Generate(id.PrefixActivity)
		if err != nil {
			s.logger.Warn("failed to generate activity id", "error", err)
			return
		}

		a := &domain.Activity{
			ID:        activityID,
			ReaderID:  rec.ReaderID,
			Kind:      kind,
			BookID:    rec.BookID,
			CreatedAt: s.clock.Now(),
		}
		if book != nil {
			a.BookTitle = book.Title
			a.BookAuthor = book.Author
		}
		if kind != domain.ActivityStartedBook {
			a.Rating = rec.Rating
		}
		if kind == domain.ActivityReviewedBook && rec.ReviewText != nil {
			a.ReviewExcerpt = domain.Excerpt(*rec.ReviewText)
		}

		if err := s.sink.Enqueue(ctx, a); err != nil {
			s.logger.Warn("failed to record activity",
				"reader_id", rec.ReaderID,
				"book_id", rec.BookID,
				"kind", kind,
				"error", err,
			)
		}
	}
}

// List returns a reader's feed, newest first.
func (s *ActivityService) List(ctx context.Context, readerID string, limit int) ([]*domain.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	limit = min(limit, maxActivityLimit)
	return s.store.ListActivities(ctx, readerID, limit)
}
