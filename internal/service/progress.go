package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/sse"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// ProgressUpdater recounts goal and challenge progress from finished records.
type ProgressUpdater struct {
	store  store.Store
	events EventEmitter
	clock  Clock
	logger *slog.Logger
}

// NewProgressUpdater creates a new progress updater.
func NewProgressUpdater(store store.Store, events EventEmitter, clock Clock, logger *slog.Logger) *ProgressUpdater {
	return &ProgressUpdater{store: store, events: emitterOrNop(events), clock: clock, logger: logger}
}

// RecomputeGoal recounts the books the reader finished in finishDate's year
// and stores it on that year's goal. A nil date, or a year without a goal,
// is a no-op.
func (p *ProgressUpdater) RecomputeGoal(ctx context.Context, readerID string, finishDate *time.Time) error {
	if finishDate == nil {
		return nil
	}
	year := finishDate.Year()
	from, to := domain.YearBounds(year)

	n, err := p.store.CountFinishedBetween(ctx, readerID, from, to)
	if err != nil {
		return fmt.Errorf("count finished in %d: %w", year, err)
	}

	updated, err := p.store.SetGoalProgress(ctx, readerID, year, n)
	if err != nil {
		return fmt.Errorf("set goal progress: %w", err)
	}
	if !updated {
		return nil
	}

	goal, err := p.store.GetGoal(ctx, readerID, year)
	if err != nil {
		return fmt.Errorf("re-read goal: %w", err)
	}
	p.logger.Debug("goal recounted", "reader_id", readerID, "year", year, "current_books", n)
	p.events.Emit(sse.NewGoalUpdatedEvent(goal))
	return nil
}

// RecomputeChallenges refreshes the reader's active memberships whose window
// contains finishDate. A nil date refreshes all of them. Returns the
// memberships completed for the first time.
func (p *ProgressUpdater) RecomputeChallenges(ctx context.Context, readerID string, finishDate *time.Time) ([]*domain.UserChallenge, error) {
	memberships, err := p.store.ListMemberships(ctx, readerID, true)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	var (
		completed []*domain.UserChallenge
		errs      []error
	)
	for _, m := range memberships {
		if finishDate != nil && !m.Challenge.Contains(*finishDate) {
			continue
		}
		done, err := p.refresh(ctx, m)
		if err != nil {
			errs = append(errs, fmt.Errorf("challenge %s: %w", m.Challenge.ID, err))
			continue
		}
		if done {
			completed = append(completed, m.Progress)
		}
	}
	return completed, errors.Join(errs...)
}

// refresh recomputes one membership. Reports whether it completed now.
func (p *ProgressUpdater) refresh(ctx context.Context, m store.Membership) (bool, error) {
	value, err := p.challengeValue(ctx, m.Progress.ReaderID, m.Challenge)
	if err != nil {
		return false, err
	}

	completedNow := m.Progress.ApplyProgress(value, m.Challenge.TargetValue, p.clock.Now())
	if err := p.store.UpdateMembershipProgress(ctx, m.Progress); err != nil {
		return false, fmt.Errorf("update progress: %w", err)
	}

	if completedNow {
		p.logger.Info("challenge completed",
			"reader_id", m.Progress.ReaderID,
			"challenge_id", m.Challenge.ID,
			"value", value,
		)
		p.events.Emit(sse.NewChallengeCompletedEvent(m.Progress))
	}
	return completedNow, nil
}

func (p *ProgressUpdater) challengeValue(ctx context.Context, readerID string, c *domain.Challenge) (int, error) {
	from, to := c.StartDate, c.EndDate.AddDate(0, 0, 1)
	switch c.Kind {
	case domain.ChallengePages:
		return p.store.SumPagesFinishedBetween(ctx, readerID, from, to)
	default:
		return p.store.CountFinishedBetween(ctx, readerID, from, to)
	}
}
