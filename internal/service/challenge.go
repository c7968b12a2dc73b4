package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/listenupapp/pagebound-server/internal/domain"
	domainerrors "github.com/listenupapp/pagebound-server/internal/errors"
	"github.com/listenupapp/pagebound-server/internal/id"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// CreateChallengeInput describes a new challenge.
type CreateChallengeInput struct {
	Name        string
	Description string
	Kind        domain.ChallengeKind
	TargetValue int
	StartDate   time.Time
	EndDate     time.Time
}

// ChallengeService manages challenges and memberships.
type ChallengeService struct {
	store    store.Store
	progress *ProgressUpdater
	clock    Clock
	logger   *slog.Logger
}

// NewChallengeService creates a new challenge service.
func NewChallengeService(store store.Store, progress *ProgressUpdater, clock Clock, logger *slog.Logger) *ChallengeService {
	return &ChallengeService{store: store, progress: progress, clock: clock, logger: logger}
}

// Create defines a new active challenge.
func (s *ChallengeService) Create(ctx context.Context, creatorID string, in CreateChallengeInput) (*domain.Challenge, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domainerrors.Validation("challenge name cannot be empty")
	}
	if !in.Kind.Valid() {
		return nil, domainerrors.Validationf("unknown challenge kind %q", in.Kind)
	}
	if in.TargetValue < 1 {
		return nil, domainerrors.Validation("target_value must be at least 1")
	}
	start := domain.CalendarDay(in.StartDate, s.clock.Location())
	end := domain.CalendarDay(in.EndDate, s.clock.Location())
	if end.Before(start) {
		return nil, domainerrors.Validation("end_date must not be before start_date")
	}

	challengeID, err := id.Generate(id.PrefixChallenge)
	if err != nil {
		return nil, fmt.Errorf("generate challenge ID: %w", err)
	}

	c := &domain.Challenge{
		ID:          challengeID,
		Name:        name,
		Description: in.Description,
		CreatedBy:   creatorID,
		Kind:        in.Kind,
		TargetValue: in.TargetValue,
		StartDate:   start,
		EndDate:     end,
		IsActive:    true,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.CreateChallenge(ctx, c); err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}

	s.logger.Info("challenge created",
		"challenge_id", c.ID,
		"created_by", creatorID,
		"kind", c.Kind,
		"target", c.TargetValue,
	)
	return c, nil
}

// Join enrolls the reader and computes their starting progress from books
// already finished inside the window.
func (s *ChallengeService) Join(ctx context.Context, readerID, challengeID string) (*domain.UserChallenge, error) {
	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, mapStoreError(err, "challenge not found")
	}
	if !c.IsActive {
		return nil, domainerrors.Validation("challenge is no longer active")
	}

	membershipID, err := id.Generate(id.PrefixMembership)
	if err != nil {
		return nil, fmt.Errorf("generate membership ID: %w", err)
	}
	uc := &domain.UserChallenge{
		ID:          membershipID,
		ReaderID:    readerID,
		ChallengeID: challengeID,
		JoinedAt:    s.clock.Now(),
	}
	if err := s.store.CreateMembership(ctx, uc); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("already joined this challenge")
		}
		return nil, fmt.Errorf("join challenge: %w", err)
	}

	if _, err := s.progress.refresh(ctx, store.Membership{Challenge: c, Progress: uc}); err != nil {
		s.logger.Warn("initial challenge progress failed",
			"reader_id", readerID,
			"challenge_id", challengeID,
			"error", err,
		)
	}

	s.logger.Info("challenge joined", "reader_id", readerID, "challenge_id", challengeID)
	return uc, nil
}

// ListForReader returns the reader's memberships, including inactive ones.
func (s *ChallengeService) ListForReader(ctx context.Context, readerID string) ([]store.Membership, error) {
	return s.store.ListMemberships(ctx, readerID, false)
}
