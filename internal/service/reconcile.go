package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/pagebound-server/internal/store"
)

// ReconcileReport summarizes a full recompute.
type ReconcileReport struct {
	Books         int
	Readers       int
	BadgesAwarded int
	Failures      int
	Duration      time.Duration
}

// Reconciler re-derives every piece of derived state from the record set.
// It is the backstop for fan-out steps that failed or were skipped.
//
// Streaks are not rebuilt: they depend on the days finishes happened, which
// records do not keep.
type Reconciler struct {
	store    store.Store
	ratings  *RatingAggregator
	badges   *BadgeEvaluator
	progress *ProgressUpdater
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler.
func NewReconciler(store store.Store, ratings *RatingAggregator, badges *BadgeEvaluator, progress *ProgressUpdater, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: store, ratings: ratings, badges: badges, progress: progress, logger: logger}
}

// ReconcileBook recomputes one book's rating.
func (r *Reconciler) ReconcileBook(ctx context.Context, bookID string) error {
	_, err := r.ratings.Recompute(ctx, bookID)
	return err
}

// ReconcileReader recounts every goal and active challenge of the reader and
// awards any badges that are due. Returns the number of badges awarded.
func (r *Reconciler) ReconcileReader(ctx context.Context, readerID string) (int, error) {
	var errs []error

	goals, err := r.store.ListGoals(ctx, readerID)
	if err != nil {
		errs = append(errs, fmt.Errorf("list goals: %w", err))
	}
	for _, g := range goals {
		jan1 := time.Date(g.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		if err := r.progress.RecomputeGoal(ctx, readerID, &jan1); err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := r.progress.RecomputeChallenges(ctx, readerID, nil); err != nil {
		errs = append(errs, err)
	}

	awarded, err := r.badges.EvaluateReader(ctx, readerID)
	if err != nil {
		errs = append(errs, err)
	}

	return len(awarded), errors.Join(errs...)
}

// ReconcileAll recomputes every book and every reader. Individual failures
// are logged and counted; only a failure to enumerate is returned.
func (r *Reconciler) ReconcileAll(ctx context.Context) (ReconcileReport, error) {
	start := time.Now()
	var report ReconcileReport

	bookIDs, err := r.store.ListBookIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list books: %w", err)
	}
	for _, bookID := range bookIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := r.ReconcileBook(ctx, bookID); err != nil {
			report.Failures++
			r.logger.Warn("reconcile book failed", "book_id", bookID, "error", err)
			continue
		}
		report.Books++
	}

	readerIDs, err := r.store.ListReaderIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list readers: %w", err)
	}
	for _, readerID := range readerIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		n, err := r.ReconcileReader(ctx, readerID)
		report.BadgesAwarded += n
		if err != nil {
			report.Failures++
			r.logger.Warn("reconcile reader failed", "reader_id", readerID, "error", err)
			continue
		}
		report.Readers++
	}

	report.Duration = time.Since(start)
	r.logger.Info("reconcile complete",
		"books", report.Books,
		"readers", report.Readers,
		"badges_awarded", report.BadgesAwarded,
		"failures", report.Failures,
		"duration", report.Duration,
	)
	return report, nil
}

// Run reconciles every interval until ctx is canceled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ReconcileAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("reconcile failed", "error", err)
			}
		}
	}
}
