package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// RatingAggregator derives a book's public rating from its records.
type RatingAggregator struct {
	store  store.Store
	logger *slog.Logger
}

// NewRatingAggregator creates a new rating aggregator.
func NewRatingAggregator(store store.Store, logger *slog.Logger) *RatingAggregator {
	return &RatingAggregator{store: store, logger: logger}
}

// Recompute averages the ratings of every finished, public, rated record of
// the book and overwrites the book's rating fields. Running it twice in a
// row yields the same state.
func (a *RatingAggregator) Recompute(ctx context.Context, bookID string) (domain.RatingSummary, error) {
	ratings, err := a.store.PublicRatings(ctx, bookID)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("load ratings: %w", err)
	}

	summary := domain.AggregateRatings(ratings)
	if err := a.store.UpdateBookRating(ctx, bookID, summary); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("update book rating: %w", err)
	}

	a.logger.Debug("book rating recomputed",
		"book_id", bookID,
		"total_ratings", summary.Count,
	)
	return summary, nil
}

// Summary returns a book's stored rating fields.
func (a *RatingAggregator) Summary(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := a.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, mapStoreError(err, "book not found")
	}
	return book, nil
}
