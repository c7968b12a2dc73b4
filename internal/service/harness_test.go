package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/sse"
	"github.com/listenupapp/pagebound-server/internal/store"
	"github.com/listenupapp/pagebound-server/internal/store/sqlite"
)

// fakeClock is a settable reference clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) AddDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

// recordingEmitter keeps every emitted event.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) ofType(typ sse.EventType) []sse.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sse.Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	t          *testing.T
	store      store.Store
	clock      *fakeClock
	events     *recordingEmitter
	ratings    *RatingAggregator
	badges     *BadgeEvaluator
	streaks    *StreakTracker
	progress   *ProgressUpdater
	activity   *ActivityService
	reading    *ReadingService
	goals      *GoalService
	challenges *ChallengeService
	books      *BookService
	reconciler *Reconciler
}

var testStart = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "pagebound.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// newHarness wires every service against a real SQLite store. wrap, if
// given, decorates the store before the services see it.
func newHarness(t *testing.T, wrap func(store.Store) store.Store) *harness {
	t.Helper()
	return newHarnessIn(t, wrap, time.UTC)
}

// newHarnessIn is newHarness with days cut in loc.
func newHarnessIn(t *testing.T, wrap func(store.Store) store.Store, loc *time.Location) *harness {
	t.Helper()

	var st store.Store = openTestStore(t)
	if wrap != nil {
		st = wrap(st)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fc := &fakeClock{now: testStart}
	clock := NewClockAt(fc.Now, loc)
	events := &recordingEmitter{}

	h := &harness{t: t, store: st, clock: fc, events: events}
	h.ratings = NewRatingAggregator(st, logger)
	h.badges = NewBadgeEvaluator(st, events, clock, logger)
	h.streaks = NewStreakTracker(st, h.badges, events, clock, logger)
	h.progress = NewProgressUpdater(st, events, clock, logger)
	h.activity = NewActivityService(st, nil, clock, logger)
	h.reading = NewReadingService(ReadingDeps{
		Store:    st,
		Ratings:  h.ratings,
		Badges:   h.badges,
		Streaks:  h.streaks,
		Progress: h.progress,
		Activity: h.activity,
		Events:   events,
		Clock:    clock,
		Logger:   logger,
	})
	h.goals = NewGoalService(st, h.progress, clock, logger)
	h.challenges = NewChallengeService(st, h.progress, clock, logger)
	h.books = NewBookService(st, clock, logger)
	h.reconciler = NewReconciler(st, h.ratings, h.badges, h.progress, logger)
	return h
}

func (h *harness) book(title string, pages int, genres ...string) *domain.Book {
	h.t.Helper()
	b, err := h.books.CreateBook(context.Background(), NewBookInput{
		Title:     title,
		Author:    "Author of " + title,
		PageCount: pages,
		Genres:    genres,
	})
	require.NoError(h.t, err)
	return b
}

// finish adds book to the reader's list as FINISHED with the given rating.
func (h *harness) finish(readerID, bookID string, rating float64) *RecordResult {
	h.t.Helper()
	res, err := h.reading.AddRecord(context.Background(), readerID, bookID, domain.RecordUpdate{
		Status: ptr(domain.StatusFinished),
		Rating: ptr(rating),
	})
	require.NoError(h.t, err)
	return res
}

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func badgeNames(badges []*domain.AwardedBadge) []string {
	names := make([]string, 0, len(badges))
	for _, b := range badges {
		names = append(names, b.Name)
	}
	return names
}
