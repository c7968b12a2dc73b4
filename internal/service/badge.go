package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/id"
	"github.com/listenupapp/pagebound-server/internal/sse"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// BadgeOutcome tells a caller whether getOrCreate inserted the catalog row
// or found one, possibly one a concurrent evaluator inserted first.
type BadgeOutcome int

// Badge get-or-create outcomes.
const (
	BadgeCreated BadgeOutcome = iota
	BadgeExisted
)

func (o BadgeOutcome) String() string {
	if o == BadgeCreated {
		return "created"
	}
	return "existed"
}

// BadgeResult is the tagged result of a get-or-create.
type BadgeResult struct {
	Badge   *domain.Badge
	Outcome BadgeOutcome
}

// BadgeEvaluator awards threshold badges. It holds no state between calls:
// every evaluation recounts from the record set and awards whatever is due
// and not yet held, so it can be re-run at any time.
type BadgeEvaluator struct {
	store  store.Store
	events EventEmitter
	clock  Clock
	logger *slog.Logger
}

// NewBadgeEvaluator creates a new badge evaluator.
func NewBadgeEvaluator(store store.Store, events EventEmitter, clock Clock, logger *slog.Logger) *BadgeEvaluator {
	return &BadgeEvaluator{store: store, events: emitterOrNop(events), clock: clock, logger: logger}
}

// EvaluateFinished checks reading milestones, review mastery and genre
// exploration for a reader. Returns only badges awarded in this call.
func (e *BadgeEvaluator) EvaluateFinished(ctx context.Context, readerID string) ([]*domain.AwardedBadge, error) {
	specs, err := e.finishedSpecs(ctx, readerID)
	if err != nil {
		return nil, err
	}
	return e.awardAll(ctx, readerID, specs)
}

// EvaluateStreak checks streak milestones against the given current streak.
func (e *BadgeEvaluator) EvaluateStreak(ctx context.Context, readerID string, currentStreak int) ([]*domain.AwardedBadge, error) {
	specs := domain.CrossedMilestones(domain.StreakMilestones, domain.BadgeReadingStreak, domain.MetricCurrentStreak, currentStreak)
	return e.awardAll(ctx, readerID, specs)
}

// EvaluateReader runs every badge family for a reader.
func (e *BadgeEvaluator) EvaluateReader(ctx context.Context, readerID string) ([]*domain.AwardedBadge, error) {
	specs, err := e.finishedSpecs(ctx, readerID)
	if err != nil {
		return nil, err
	}

	streak, err := e.store.GetStreak(ctx, readerID)
	if err != nil {
		return nil, fmt.Errorf("load streak: %w", err)
	}
	if streak != nil {
		specs = append(specs, domain.CrossedMilestones(domain.StreakMilestones,
			domain.BadgeReadingStreak, domain.MetricCurrentStreak, streak.CurrentStreak)...)
	}

	return e.awardAll(ctx, readerID, specs)
}

// ListAwarded returns the badges a reader holds.
func (e *BadgeEvaluator) ListAwarded(ctx context.Context, readerID string) ([]*domain.AwardedBadge, error) {
	return e.store.ListUserBadges(ctx, readerID)
}

func (e *BadgeEvaluator) finishedSpecs(ctx context.Context, readerID string) ([]domain.BadgeSpec, error) {
	finished, err := e.store.CountFinished(ctx, readerID)
	if err != nil {
		return nil, fmt.Errorf("count finished: %w", err)
	}
	reviewed, err := e.store.CountReviewed(ctx, readerID)
	if err != nil {
		return nil, fmt.Errorf("count reviewed: %w", err)
	}
	byGenre, err := e.store.CountFinishedByGenre(ctx, readerID)
	if err != nil {
		return nil, fmt.Errorf("count genres: %w", err)
	}

	specs := domain.CrossedMilestones(domain.ReadingMilestones, domain.BadgeReadingMilestone, domain.MetricFinishedBooks, finished)
	specs = append(specs, domain.CrossedMilestones(domain.ReviewMilestones, domain.BadgeReviewMaster, domain.MetricReviewedBooks, reviewed)...)

	genres := make([]string, 0, len(byGenre))
	for slug, n := range byGenre {
		if n >= domain.GenreExplorerMinimum {
			genres = append(genres, slug)
		}
	}
	sort.Strings(genres)
	for _, slug := range genres {
		specs = append(specs, domain.GenreExplorerSpec(slug))
	}
	return specs, nil
}

// awardAll awards each spec independently. A failure on one badge does not
// stop the others; the failures are joined into the returned error.
func (e *BadgeEvaluator) awardAll(ctx context.Context, readerID string, specs []domain.BadgeSpec) ([]*domain.AwardedBadge, error) {
	var (
		awarded []*domain.AwardedBadge
		errs    []error
	)
	for _, spec := range specs {
		ab, err := e.award(ctx, readerID, spec)
		if err != nil {
			errs = append(errs, fmt.Errorf("badge %q: %w", spec.Name, err))
			continue
		}
		if ab != nil {
			awarded = append(awarded, ab)
		}
	}

	if len(awarded) > 0 {
		e.events.Emit(sse.NewBadgeAwardedEvent(readerID, awarded))
	}
	return awarded, errors.Join(errs...)
}

// award gives the reader the badge described by spec. Returns nil if the
// reader already holds it.
func (e *BadgeEvaluator) award(ctx context.Context, readerID string, spec domain.BadgeSpec) (*domain.AwardedBadge, error) {
	res, err := e.getOrCreate(ctx, spec)
	if err != nil {
		return nil, err
	}

	if _, err := e.store.GetUserBadge(ctx, readerID, res.Badge.ID); err == nil {
		return nil, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check award: %w", err)
	}

	ub := &domain.UserBadge{
		ReaderID:  readerID,
		BadgeID:   res.Badge.ID,
		AwardedAt: e.clock.Now(),
	}
	if err := e.store.CreateUserBadge(ctx, ub); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, nil
		}
		return nil, fmt.Errorf("award badge: %w", err)
	}

	e.logger.Info("badge awarded",
		"reader_id", readerID,
		"badge", res.Badge.Name,
		"badge_type", res.Badge.Type,
		"catalog", res.Outcome.String(),
	)
	return &domain.AwardedBadge{Badge: *res.Badge, AwardedAt: ub.AwardedAt}, nil
}

// getOrCreate returns the catalog row for spec, inserting it if missing.
// Losing the insert race to another evaluator is not an error: the winner's
// row is re-read and returned tagged BadgeExisted.
func (e *BadgeEvaluator) getOrCreate(ctx context.Context, spec domain.BadgeSpec) (BadgeResult, error) {
	existing, err := e.store.GetBadgeByName(ctx, spec.Name, spec.Type)
	if err == nil {
		return BadgeResult{Badge: existing, Outcome: BadgeExisted}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return BadgeResult{}, fmt.Errorf("lookup badge: %w", err)
	}

	badgeID, err := id.Generate(id.PrefixBadge)
	if err != nil {
		return BadgeResult{}, err
	}
	badge := &domain.Badge{
		ID:          badgeID,
		Name:        spec.Name,
		Description: spec.Description,
		Type:        spec.Type,
		Criteria:    spec.CriteriaJSON(),
		Points:      spec.Points,
		CreatedAt:   e.clock.Now(),
	}

	err = e.store.CreateBadge(ctx, badge)
	switch {
	case err == nil:
		return BadgeResult{Badge: badge, Outcome: BadgeCreated}, nil
	case errors.Is(err, store.ErrAlreadyExists):
		winner, err := e.store.GetBadgeByName(ctx, spec.Name, spec.Type)
		if err != nil {
			return BadgeResult{}, fmt.Errorf("re-read badge after insert race: %w", err)
		}
		return BadgeResult{Badge: winner, Outcome: BadgeExisted}, nil
	default:
		return BadgeResult{}, fmt.Errorf("create badge: %w", err)
	}
}
