package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store"
)

func TestCreateAndGetRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-1", 320, "Fantasy")

	rating := 8.5
	review := "sprawling"
	page := 320
	want := insertTestRecord(t, s, "rec-1", "reader-1", "book-1", func(r *domain.ReadingRecord) {
		r.Status = domain.StatusFinished
		r.Rating = &rating
		r.ReviewText = &review
		r.StartDate = date(2026, 1, 2)
		r.FinishDate = date(2026, 1, 20)
		r.CurrentPage = &page
		r.IsFavorite = true
	})

	got, err := s.GetRecord(ctx, "rec-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Status != domain.StatusFinished {
		t.Errorf("Status: got %q, want FINISHED", got.Status)
	}
	if got.Rating == nil || *got.Rating != 8.5 {
		t.Errorf("Rating: got %v, want 8.5", got.Rating)
	}
	if got.ReviewText == nil || *got.ReviewText != review {
		t.Errorf("ReviewText: got %v, want %q", got.ReviewText, review)
	}
	if got.FinishDate == nil || !got.FinishDate.Equal(*want.FinishDate) {
		t.Errorf("FinishDate: got %v, want %v", got.FinishDate, want.FinishDate)
	}
	if got.CurrentPage == nil || *got.CurrentPage != 320 {
		t.Errorf("CurrentPage: got %v, want 320", got.CurrentPage)
	}
	if !got.IsFavorite || got.IsPrivate {
		t.Errorf("flags: favorite=%v private=%v", got.IsFavorite, got.IsPrivate)
	}
	if got.Notes != nil {
		t.Errorf("Notes: expected nil, got %v", *got.Notes)
	}
}

func TestCreateRecord_DuplicateReaderBook(t *testing.T) {
	s := newTestStore(t)
	insertTestBook(t, s, "book-1", 100)
	insertTestRecord(t, s, "rec-1", "reader-1", "book-1", nil)

	dup := domain.NewReadingRecord("rec-2", "reader-1", "book-1", time.Now())
	err := s.CreateRecord(context.Background(), dup)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetRecord_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRecord(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateAndDeleteRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-1", 100)
	r := insertTestRecord(t, s, "rec-1", "reader-1", "book-1", nil)

	r.Status = domain.StatusCurrentlyReading
	r.StartDate = date(2026, 2, 1)
	r.UpdatedAt = time.Now().UTC()
	if err := s.UpdateRecord(ctx, r); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}

	got, err := s.GetRecord(ctx, "rec-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Status != domain.StatusCurrentlyReading || got.StartDate == nil {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := s.DeleteRecord(ctx, "rec-1"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if err := s.DeleteRecord(ctx, "rec-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}

	r.ID = "rec-missing"
	if err := s.UpdateRecord(ctx, r); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update missing: expected ErrNotFound, got %v", err)
	}
}

func TestListRecords_FiltersByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-1", 100)
	insertTestBook(t, s, "book-2", 100)
	insertTestBook(t, s, "book-3", 100)
	insertTestRecord(t, s, "rec-1", "reader-1", "book-1", func(r *domain.ReadingRecord) { r.Status = domain.StatusFinished })
	insertTestRecord(t, s, "rec-2", "reader-1", "book-2", nil)
	insertTestRecord(t, s, "rec-3", "reader-2", "book-3", nil)

	all, err := s.ListRecords(ctx, "reader-1", "")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 records, got %d", len(all))
	}

	finished, err := s.ListRecords(ctx, "reader-1", domain.StatusFinished)
	if err != nil {
		t.Fatalf("ListRecords(FINISHED): %v", err)
	}
	if len(finished) != 1 || finished[0].ID != "rec-1" {
		t.Errorf("expected only rec-1, got %+v", finished)
	}
}

func TestPublicRatings_ExcludesPrivateUnratedAndUnfinished(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-1", 100)

	r8, r6, r2 := 8.0, 6.0, 2.0
	insertTestRecord(t, s, "rec-1", "reader-1", "book-1", func(r *domain.ReadingRecord) {
		r.Status = domain.StatusFinished
		r.Rating = &r8
	})
	insertTestRecord(t, s, "rec-2", "reader-2", "book-1", func(r *domain.ReadingRecord) {
		r.Status = domain.StatusFinished
		r.Rating = &r6
	})
	insertTestRecord(t, s, "rec-3", "reader-3", "book-1", func(r *domain.ReadingRecord) {
		r.Status = domain.StatusFinished
		r.Rating = &r2
		r.IsPrivate = true
	})
	insertTestRecord(t, s, "rec-4", "reader-4", "book-1", func(r *domain.ReadingRecord) {
		r.Status = domain.StatusFinished
	})
	insertTestRecord(t, s, "rec-5", "reader-5", "book-1", func(r *domain.ReadingRecord) {
		r.Status = domain.StatusCurrentlyReading
	})

	ratings, err := s.PublicRatings(ctx, "book-1")
	if err != nil {
		t.Fatalf("PublicRatings: %v", err)
	}
	if len(ratings) != 2 {
		t.Fatalf("expected 2 ratings, got %v", ratings)
	}
}

func TestFinishedCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-1", 100, "Sci-Fi", "Horror")
	insertTestBook(t, s, "book-2", 250, "science fiction")
	insertTestBook(t, s, "book-3", 400, "Romance")

	review := "good"
	empty := ""
	insertTestRecord(t, s, "rec-1", "reader-1", "book-1", func(r *domain.ReadingRecord) {
		r.Status = domain.StatusFinished
		r.FinishDate = date(2025, 12, 31)
		r.ReviewText = &review
	})
	insertTestRecord(t, s, "rec-2", "reader-1", "book-2", func(r *domain.ReadingRecord) {
		r.Status = domain.StatusFinished
		r.FinishDate = date(2026, 1, 1)
		r.ReviewText = &empty
	})
	insertTestRecord(t, s, "rec-3", "reader-1", "book-3", func(r *domain.ReadingRecord) {
		r.Status = domain.StatusDidNotFinish
	})

	n, err := s.CountFinished(ctx, "reader-1")
	if err != nil || n != 2 {
		t.Errorf("CountFinished: got %d, %v; want 2", n, err)
	}

	n, err = s.CountReviewed(ctx, "reader-1")
	if err != nil || n != 1 {
		t.Errorf("CountReviewed: got %d, %v; want 1", n, err)
	}

	byGenre, err := s.CountFinishedByGenre(ctx, "reader-1")
	if err != nil {
		t.Fatalf("CountFinishedByGenre: %v", err)
	}
	if byGenre["science-fiction"] != 2 || byGenre["horror"] != 1 || byGenre["romance"] != 0 {
		t.Errorf("unexpected genre counts: %v", byGenre)
	}

	from, to := domain.YearBounds(2026)
	n, err = s.CountFinishedBetween(ctx, "reader-1", from, to)
	if err != nil || n != 1 {
		t.Errorf("CountFinishedBetween(2026): got %d, %v; want 1", n, err)
	}

	pages, err := s.SumPagesFinishedBetween(ctx, "reader-1", *date(2025, 12, 1), *date(2026, 2, 1))
	if err != nil || pages != 350 {
		t.Errorf("SumPagesFinishedBetween: got %d, %v; want 350", pages, err)
	}
}

func TestListReaderIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-1", 100)
	insertTestRecord(t, s, "rec-1", "reader-b", "book-1", nil)
	if err := s.CreateStreak(ctx, &domain.ReadingStreak{ReaderID: "reader-a", CurrentStreak: 1, LongestStreak: 1, UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("CreateStreak: %v", err)
	}

	ids, err := s.ListReaderIDs(ctx)
	if err != nil {
		t.Fatalf("ListReaderIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "reader-a" || ids[1] != "reader-b" {
		t.Errorf("unexpected reader ids: %v", ids)
	}
}
