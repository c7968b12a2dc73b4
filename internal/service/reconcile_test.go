package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// flakyStore fails rating and goal writes while broken is set.
type flakyStore struct {
	store.Store
	broken atomic.Bool
}

var errDiskFull = errors.New("disk full")

func (s *flakyStore) UpdateBookRating(ctx context.Context, bookID string, summary domain.RatingSummary) error {
	if s.broken.Load() {
		return errDiskFull
	}
	return s.Store.UpdateBookRating(ctx, bookID, summary)
}

func (s *flakyStore) SetGoalProgress(ctx context.Context, readerID string, year, current int) (bool, error) {
	if s.broken.Load() {
		return false, errDiskFull
	}
	return s.Store.SetGoalProgress(ctx, readerID, year, current)
}

func TestFanOutFailureDoesNotFailWriteAndReconcileRepairs(t *testing.T) {
	var flaky *flakyStore
	h := newHarness(t, func(s store.Store) store.Store {
		flaky = &flakyStore{Store: s}
		return flaky
	})
	ctx := context.Background()
	b := h.book("Fragile", 100)
	_, err := h.goals.SetGoal(ctx, "reader-1", 2026, 5)
	require.NoError(t, err)

	flaky.broken.Store(true)
	res := h.finish("reader-1", b.ID, 6)
	flaky.broken.Store(false)

	stored, err := h.store.GetRecord(ctx, res.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, stored.Status)

	book, err := h.store.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, book.TotalRatings, "rating write failed, so the aggregate is stale")

	streak, err := h.store.GetStreak(ctx, "reader-1")
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak, "later fan-out steps still ran")

	report, err := h.reconciler.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Books)
	assert.Equal(t, 1, report.Readers)
	assert.Zero(t, report.Failures)

	book, err = h.store.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, book.TotalRatings)
	assert.InDelta(t, 6.0, *book.AverageRating, 1e-9)

	goal, err := h.goals.GetGoal(ctx, "reader-1", 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, goal.CurrentBooks)
}

func TestReconcile_AwardsMissedBadgesAndIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	seedFinished(t, h, "reader-1", h.manyBooks(10), func(r *domain.ReadingRecord) {
		r.Rating = ptr(8.0)
	})

	report, err := h.reconciler.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.BadgesAwarded)

	held, err := h.badges.ListAwarded(ctx, "reader-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Bookworm Beginner", "Avid Reader"}, badgeNames(held))

	report, err = h.reconciler.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.BadgesAwarded)
}

func TestReconcile_CanceledContextStops(t *testing.T) {
	h := newHarness(t, nil)
	h.book("Any", 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.reconciler.ReconcileAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
