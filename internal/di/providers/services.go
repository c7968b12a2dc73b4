package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/pagebound-server/internal/config"
	"github.com/listenupapp/pagebound-server/internal/logger"
	"github.com/listenupapp/pagebound-server/internal/review"
	"github.com/listenupapp/pagebound-server/internal/service"
)

// ProvideClock provides the reference clock that cuts streak and goal days.
func ProvideClock(i do.Injector) (service.Clock, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return service.NewClock(cfg.Engine.StreakLocation), nil
}

// ProvideRatingAggregator provides the rating aggregator.
func ProvideRatingAggregator(i do.Injector) (*service.RatingAggregator, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewRatingAggregator(storeHandle.Store, log.Logger), nil
}

// ProvideBadgeEvaluator provides the badge evaluator.
func ProvideBadgeEvaluator(i do.Injector) (*service.BadgeEvaluator, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewBadgeEvaluator(storeHandle.Store, sseHandle.Manager, clock, log.Logger), nil
}

// ProvideStreakTracker provides the streak tracker.
func ProvideStreakTracker(i do.Injector) (*service.StreakTracker, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	badges := do.MustInvoke[*service.BadgeEvaluator](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewStreakTracker(storeHandle.Store, badges, sseHandle.Manager, clock, log.Logger), nil
}

// ProvideProgressUpdater provides the goal and challenge progress updater.
func ProvideProgressUpdater(i do.Injector) (*service.ProgressUpdater, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewProgressUpdater(storeHandle.Store, sseHandle.Manager, clock, log.Logger), nil
}

// ProvideActivityService provides the activity service. Entries go through
// the outbox.
func ProvideActivityService(i do.Injector) (*service.ActivityService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	outboxHandle := do.MustInvoke[*OutboxHandle](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewActivityService(storeHandle.Store, outboxHandle.Outbox, clock, log.Logger), nil
}

// ProvideReadingService provides the reading service and wires its fan-out.
func ProvideReadingService(i do.Injector) (*service.ReadingService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*JournalIndexHandle](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReadingService(service.ReadingDeps{
		Store:    storeHandle.Store,
		Ratings:  do.MustInvoke[*service.RatingAggregator](i),
		Badges:   do.MustInvoke[*service.BadgeEvaluator](i),
		Streaks:  do.MustInvoke[*service.StreakTracker](i),
		Progress: do.MustInvoke[*service.ProgressUpdater](i),
		Activity: do.MustInvoke[*service.ActivityService](i),
		Index:    indexHandle.JournalIndex,
		Reviews:  review.NewNormalizer(),
		Events:   sseHandle.Manager,
		Clock:    clock,
		Logger:   log.Logger,
	}), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewBookService(storeHandle.Store, clock, log.Logger), nil
}

// ProvideGoalService provides the goal service.
func ProvideGoalService(i do.Injector) (*service.GoalService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	progress := do.MustInvoke[*service.ProgressUpdater](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewGoalService(storeHandle.Store, progress, clock, log.Logger), nil
}

// ProvideChallengeService provides the challenge service.
func ProvideChallengeService(i do.Injector) (*service.ChallengeService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	progress := do.MustInvoke[*service.ProgressUpdater](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewChallengeService(storeHandle.Store, progress, clock, log.Logger), nil
}

// ProvideReconciler provides the reconciler.
func ProvideReconciler(i do.Injector) (*service.Reconciler, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewReconciler(
		storeHandle.Store,
		do.MustInvoke[*service.RatingAggregator](i),
		do.MustInvoke[*service.BadgeEvaluator](i),
		do.MustInvoke[*service.ProgressUpdater](i),
		log.Logger,
	), nil
}
