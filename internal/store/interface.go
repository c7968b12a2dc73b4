// Package store defines the persistence contract for the Pagebound server.
//
// Reading records are the source of truth. Every other table holds state that
// can be re-derived from them, plus the lazily grown badge catalog.
package store

import (
	"context"
	"time"

	"github.com/listenupapp/pagebound-server/internal/domain"
)

// Books is the book catalog and its derived rating fields.
type Books interface {
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	ListBookIDs(ctx context.Context) ([]string, error)
	// UpdateBookRating overwrites the derived rating fields unconditionally.
	UpdateBookRating(ctx context.Context, bookID string, summary domain.RatingSummary) error
}

// Records stores reading records and answers the aggregate queries every
// recomputation is built from.
type Records interface {
	// CreateRecord returns ErrAlreadyExists if the reader already tracks the book.
	CreateRecord(ctx context.Context, rec *domain.ReadingRecord) error
	GetRecord(ctx context.Context, id string) (*domain.ReadingRecord, error)
	UpdateRecord(ctx context.Context, rec *domain.ReadingRecord) error
	DeleteRecord(ctx context.Context, id string) error
	// ListRecords returns a reader's records, newest update first.
	// A non-empty status filters the result.
	ListRecords(ctx context.Context, readerID string, status domain.ReadingStatus) ([]*domain.ReadingRecord, error)
	ListReaderIDs(ctx context.Context) ([]string, error)

	PublicRatings(ctx context.Context, bookID string) ([]float64, error)
	CountFinished(ctx context.Context, readerID string) (int, error)
	CountReviewed(ctx context.Context, readerID string) (int, error)
	// CountFinishedByGenre groups finished records by canonical genre slug.
	CountFinishedByGenre(ctx context.Context, readerID string) (map[string]int, error)
	// CountFinishedBetween counts finished records with finish_date in [from, to).
	CountFinishedBetween(ctx context.Context, readerID string, from, to time.Time) (int, error)
	// SumPagesFinishedBetween sums book page counts over the same window.
	SumPagesFinishedBetween(ctx context.Context, readerID string, from, to time.Time) (int, error)
}

// Streaks stores one streak row per reader.
type Streaks interface {
	// GetStreak returns nil, nil when the reader has no streak yet.
	GetStreak(ctx context.Context, readerID string) (*domain.ReadingStreak, error)
	// CreateStreak returns ErrAlreadyExists if another writer created it first.
	CreateStreak(ctx context.Context, streak *domain.ReadingStreak) error
	// SwapStreak writes next only if the stored last_read_date still equals
	// expectedLast. Returns ErrConflict otherwise.
	SwapStreak(ctx context.Context, next *domain.ReadingStreak, expectedLast *time.Time) error
	ListStreaks(ctx context.Context) ([]*domain.ReadingStreak, error)
}

// Badges is the lazily materialized badge catalog and the award table.
type Badges interface {
	GetBadgeByName(ctx context.Context, name string, typ domain.BadgeType) (*domain.Badge, error)
	// CreateBadge returns ErrAlreadyExists when (name, type) is taken.
	CreateBadge(ctx context.Context, badge *domain.Badge) error
	ListBadges(ctx context.Context) ([]*domain.Badge, error)

	GetUserBadge(ctx context.Context, readerID, badgeID string) (*domain.UserBadge, error)
	// CreateUserBadge returns ErrAlreadyExists if the reader already holds it.
	CreateUserBadge(ctx context.Context, ub *domain.UserBadge) error
	ListUserBadges(ctx context.Context, readerID string) ([]*domain.AwardedBadge, error)
}

// Goals stores opt-in yearly reading goals.
type Goals interface {
	GetGoal(ctx context.Context, readerID string, year int) (*domain.ReadingGoal, error)
	// UpsertGoal sets the target for (reader, year), keeping the row id if it exists.
	UpsertGoal(ctx context.Context, goal *domain.ReadingGoal) error
	// SetGoalProgress overwrites current_books. Reports false if no goal row exists.
	SetGoalProgress(ctx context.Context, readerID string, year, current int) (bool, error)
	ListGoals(ctx context.Context, readerID string) ([]*domain.ReadingGoal, error)
}

// Membership pairs a reader's challenge row with its definition.
type Membership struct {
	Challenge *domain.Challenge
	Progress  *domain.UserChallenge
}

// Challenges stores challenge definitions and memberships.
type Challenges interface {
	CreateChallenge(ctx context.Context, c *domain.Challenge) error
	GetChallenge(ctx context.Context, id string) (*domain.Challenge, error)
	ListChallenges(ctx context.Context) ([]*domain.Challenge, error)
	// CreateMembership returns ErrAlreadyExists if the reader already joined.
	CreateMembership(ctx context.Context, uc *domain.UserChallenge) error
	// ListMemberships returns a reader's memberships. activeOnly skips
	// inactive challenges.
	ListMemberships(ctx context.Context, readerID string, activeOnly bool) ([]Membership, error)
	UpdateMembershipProgress(ctx context.Context, uc *domain.UserChallenge) error
}

// Activities stores the reader activity feed.
type Activities interface {
	// CreateActivity returns ErrAlreadyExists on a replayed id.
	CreateActivity(ctx context.Context, a *domain.Activity) error
	ListActivities(ctx context.Context, readerID string, limit int) ([]*domain.Activity, error)
}

// Store is the full persistence surface.
type Store interface {
	Books
	Records
	Streaks
	Badges
	Goals
	Challenges
	Activities
	Close() error
}
