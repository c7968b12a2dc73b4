package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/sse"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// maxStreakAttempts bounds compare-and-swap retries for one finish.
const maxStreakAttempts = 5

// StreakTracker maintains each reader's run of consecutive finishing days.
type StreakTracker struct {
	store  store.Store
	badges *BadgeEvaluator
	events EventEmitter
	clock  Clock
	logger *slog.Logger
}

// NewStreakTracker creates a new streak tracker.
func NewStreakTracker(store store.Store, badges *BadgeEvaluator, events EventEmitter, clock Clock, logger *slog.Logger) *StreakTracker {
	return &StreakTracker{store: store, badges: badges, events: emitterOrNop(events), clock: clock, logger: logger}
}

// RecordFinish advances the reader's streak for today, then evaluates streak
// badges against the stored row. A second finish on the same day changes
// nothing. Concurrent finishes for one reader are serialized by a
// compare-and-swap on the last read date.
func (t *StreakTracker) RecordFinish(ctx context.Context, readerID string) ([]*domain.AwardedBadge, error) {
	if _, err := t.advance(ctx, readerID); err != nil {
		return nil, err
	}

	stored, err := t.store.GetStreak(ctx, readerID)
	if err != nil {
		return nil, fmt.Errorf("re-read streak: %w", err)
	}
	if stored == nil {
		return nil, nil
	}
	return t.badges.EvaluateStreak(ctx, readerID, stored.CurrentStreak)
}

// Get returns the reader's streak, or a zero streak if none exists.
func (t *StreakTracker) Get(ctx context.Context, readerID string) (*domain.ReadingStreak, error) {
	s, err := t.store.GetStreak(ctx, readerID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return &domain.ReadingStreak{ReaderID: readerID}, nil
	}
	return s, nil
}

func (t *StreakTracker) advance(ctx context.Context, readerID string) (domain.StreakOutcome, error) {
	today := t.clock.Today()

	for range maxStreakAttempts {
		current, err := t.store.GetStreak(ctx, readerID)
		if err != nil {
			return 0, fmt.Errorf("load streak: %w", err)
		}

		next, outcome := domain.Advance(current, readerID, today)
		if outcome == domain.StreakUnchanged {
			return outcome, nil
		}
		next.UpdatedAt = t.clock.Now()

		if current == nil {
			err = t.store.CreateStreak(ctx, &next)
		} else {
			err = t.store.SwapStreak(ctx, &next, current.LastReadDate)
		}
		if errors.Is(err, store.ErrAlreadyExists) || errors.Is(err, store.ErrConflict) {
			t.logger.Debug("streak write lost race, retrying", "reader_id", readerID)
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("save streak: %w", err)
		}

		t.logger.Info("streak updated",
			"reader_id", readerID,
			"outcome", outcome.String(),
			"current", next.CurrentStreak,
			"longest", next.LongestStreak,
		)
		t.events.Emit(sse.NewStreakUpdatedEvent(&next))
		return outcome, nil
	}

	return 0, fmt.Errorf("update streak for %s: gave up after %d conflicting writes", readerID, maxStreakAttempts)
}
