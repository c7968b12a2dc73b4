package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/pagebound-server/internal/domain"
	domainerrors "github.com/listenupapp/pagebound-server/internal/errors"
	"github.com/listenupapp/pagebound-server/internal/id"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// Goal years outside this range are rejected.
const (
	minGoalYear = 1900
	maxGoalYear = 9999
)

// GoalService manages opt-in yearly reading goals.
type GoalService struct {
	store    store.Store
	progress *ProgressUpdater
	clock    Clock
	logger   *slog.Logger
}

// NewGoalService creates a new goal service.
func NewGoalService(store store.Store, progress *ProgressUpdater, clock Clock, logger *slog.Logger) *GoalService {
	return &GoalService{store: store, progress: progress, clock: clock, logger: logger}
}

// SetGoal creates or retargets the reader's goal for year and immediately
// counts the books already finished in it.
func (s *GoalService) SetGoal(ctx context.Context, readerID string, year, target int) (*domain.ReadingGoal, error) {
	if year < minGoalYear || year > maxGoalYear {
		return nil, domainerrors.Validationf("year must be between %d and %d", minGoalYear, maxGoalYear)
	}
	if target < 1 {
		return nil, domainerrors.Validation("target_books must be at least 1")
	}

	goalID, err := id.Generate(id.PrefixGoal)
	if err != nil {
		return nil, fmt.Errorf("generate goal ID: %w", err)
	}
	now := s.clock.Now()
	goal := &domain.ReadingGoal{
		ID:          goalID,
		ReaderID:    readerID,
		Year:        year,
		TargetBooks: target,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.UpsertGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("upsert goal: %w", err)
	}

	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	if err := s.progress.RecomputeGoal(ctx, readerID, &jan1); err != nil {
		return nil, fmt.Errorf("count goal progress: %w", err)
	}

	s.logger.Info("goal set", "reader_id", readerID, "year", year, "target_books", target)
	return s.GetGoal(ctx, readerID, year)
}

// GetGoal returns the reader's goal for year.
func (s *GoalService) GetGoal(ctx context.Context, readerID string, year int) (*domain.ReadingGoal, error) {
	goal, err := s.store.GetGoal(ctx, readerID, year)
	if err != nil {
		return nil, mapStoreError(err, fmt.Sprintf("no goal set for %d", year))
	}
	return goal, nil
}

// ListGoals returns every goal the reader has set.
func (s *GoalService) ListGoals(ctx context.Context, readerID string) ([]*domain.ReadingGoal, error) {
	return s.store.ListGoals(ctx, readerID)
}
