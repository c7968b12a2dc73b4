package backup

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "pagebound.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

// populate writes one of every entity type.
func populate(t *testing.T, s *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	finished := time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateBook(ctx, &domain.Book{
		ID: "book-1", Title: "Piranesi", Author: "Susanna Clarke", PageCount: 272,
		Genres: []string{"fantasy"}, AverageRating: ptr(8.0), TotalRatings: 1,
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, s.CreateChallenge(ctx, &domain.Challenge{
		ID: "ch-1", Name: "Summer", Kind: domain.ChallengeBooks, TargetValue: 2,
		StartDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		IsActive:  true, CreatedBy: "reader-1", CreatedAt: now,
	}))

	rec := domain.NewReadingRecord("rec-1", "reader-1", "book-1", now)
	rec.Status = domain.StatusFinished
	rec.FinishDate = &finished
	rec.Rating = ptr(8.0)
	rec.ReviewText = ptr("A house of endless halls.")
	require.NoError(t, s.CreateRecord(ctx, rec))

	require.NoError(t, s.UpsertGoal(ctx, &domain.ReadingGoal{
		ID: "goal-1", ReaderID: "reader-1", Year: 2026, TargetBooks: 12, CurrentBooks: 1,
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, s.CreateMembership(ctx, &domain.UserChallenge{
		ID: "uc-1", ReaderID: "reader-1", ChallengeID: "ch-1", CurrentValue: 1, JoinedAt: now,
	}))
	require.NoError(t, s.CreateStreak(ctx, &domain.ReadingStreak{
		ReaderID: "reader-1", CurrentStreak: 3, LongestStreak: 5, LastReadDate: &finished, UpdatedAt: now,
	}))

	criteria, err := json.Marshal(domain.BadgeCriteria{Metric: "books_finished", Threshold: 1})
	require.NoError(t, err)
	require.NoError(t, s.CreateBadge(ctx, &domain.Badge{
		ID: "badge-1", Name: "First Book", Type: domain.BadgeReadingMilestone,
		Criteria: criteria, Points: 10, CreatedAt: now,
	}))
	require.NoError(t, s.CreateUserBadge(ctx, &domain.UserBadge{
		ReaderID: "reader-1", BadgeID: "badge-1", AwardedAt: now,
	}))
	require.NoError(t, s.CreateActivity(ctx, &domain.Activity{
		ID: "act-1", ReaderID: "reader-1", Kind: domain.ActivityFinishedBook,
		BookID: "book-1", BookTitle: "Piranesi", BookAuthor: "Susanna Clarke", CreatedAt: now,
	}))
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openStore(t)
	populate(t, src)

	svc := NewBackupService(src, t.TempDir(), testLogger())
	res, err := svc.Create(ctx, DefaultBackupOptions())
	require.NoError(t, err)
	assert.FileExists(t, res.Path)
	assert.Len(t, res.Checksum, 64)
	assert.Equal(t, EntityCounts{
		Books: 1, Challenges: 1, Records: 1, Goals: 1, Memberships: 1,
		Streaks: 1, Badges: 1, UserBadges: 1, Activities: 1,
	}, res.Counts)

	dst := openStore(t)
	restorer := NewRestoreService(dst, testLogger())

	check, err := restorer.Validate(ctx, res.Path)
	require.NoError(t, err)
	assert.True(t, check.Valid, check.Errors)

	out, err := restorer.Restore(ctx, res.Path, RestoreOptions{})
	require.NoError(t, err)
	assert.Empty(t, out.Errors)
	assert.Equal(t, 1, out.Imported["records"])
	assert.Equal(t, 1, out.Imported["activities"])

	rec, err := dst.GetRecord(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, rec.Status)
	require.NotNil(t, rec.Rating)
	assert.InDelta(t, 8.0, *rec.Rating, 0.001)

	streak, err := dst.GetStreak(ctx, "reader-1")
	require.NoError(t, err)
	require.NotNil(t, streak)
	assert.Equal(t, 5, streak.LongestStreak)

	badges, err := dst.ListUserBadges(ctx, "reader-1")
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "First Book", badges[0].Name)

	memberships, err := dst.ListMemberships(ctx, "reader-1", false)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, "ch-1", memberships[0].Challenge.ID)
}

func TestBackup_WithoutActivities(t *testing.T) {
	ctx := context.Background()
	src := openStore(t)
	populate(t, src)

	res, err := NewBackupService(src, t.TempDir(), testLogger()).Create(ctx, BackupOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.Counts.Activities)

	dst := openStore(t)
	out, err := NewRestoreService(dst, testLogger()).Restore(ctx, res.Path, RestoreOptions{})
	require.NoError(t, err)
	assert.Zero(t, out.Imported["activities"])

	feed, err := dst.ListActivities(ctx, "reader-1", 10)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestRestore_RejectsNonEmptyStore(t *testing.T) {
	ctx := context.Background()
	src := openStore(t)
	populate(t, src)

	res, err := NewBackupService(src, t.TempDir(), testLogger()).Create(ctx, DefaultBackupOptions())
	require.NoError(t, err)

	_, err = NewRestoreService(src, testLogger()).Restore(ctx, res.Path, RestoreOptions{})
	assert.ErrorIs(t, err, ErrStoreNotEmpty)

	// A dry run only decodes, so it is allowed anywhere.
	out, err := NewRestoreService(src, testLogger()).Restore(ctx, res.Path, RestoreOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Imported["books"])
}

func TestRestore_InvalidArchive(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bogus.pagebound.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

	svc := NewRestoreService(openStore(t), testLogger())
	check, err := svc.Validate(ctx, path)
	require.NoError(t, err)
	assert.False(t, check.Valid)

	_, err = svc.Restore(ctx, path, RestoreOptions{})
	require.Error(t, err)
}

func TestVersionSupported(t *testing.T) {
	assert.True(t, versionSupported("1.0"))
	assert.True(t, versionSupported("1.7"))
	assert.False(t, versionSupported("2.0"))
	assert.False(t, versionSupported(""))
}

func TestBackupService_ListGetDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	svc := NewBackupService(openStore(t), dir, testLogger())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	res, err := svc.Create(ctx, BackupOptions{OutputPath: svc.Path("nightly")})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "nightly", list[0].ID)
	assert.Equal(t, res.Path, list[0].Path)

	info, err := svc.Get(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, res.Size, info.Size)

	require.NoError(t, svc.Delete(ctx, "nightly"))
	_, err = svc.Get(ctx, "nightly")
	assert.ErrorIs(t, err, ErrBackupNotFound)
}
