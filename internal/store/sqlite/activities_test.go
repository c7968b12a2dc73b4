package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store"
)

func TestActivities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()
	rating := 9.0

	first := &domain.Activity{ID: "act-1", ReaderID: "reader-1", Kind: domain.ActivityStartedBook, BookID: "book-1", BookTitle: "Dune", BookAuthor: "Herbert", CreatedAt: base}
	second := &domain.Activity{ID: "act-2", ReaderID: "reader-1", Kind: domain.ActivityFinishedBook, BookID: "book-1", BookTitle: "Dune", BookAuthor: "Herbert", Rating: &rating, ReviewExcerpt: "spice", CreatedAt: base.Add(time.Minute)}

	for _, a := range []*domain.Activity{first, second} {
		if err := s.CreateActivity(ctx, a); err != nil {
			t.Fatalf("CreateActivity(%s): %v", a.ID, err)
		}
	}
	if err := s.CreateActivity(ctx, first); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("replay: expected ErrAlreadyExists, got %v", err)
	}

	feed, err := s.ListActivities(ctx, "reader-1", 10)
	if err != nil {
		t.Fatalf("ListActivities: %v", err)
	}
	if len(feed) != 2 || feed[0].ID != "act-2" {
		t.Fatalf("unexpected feed order: %+v", feed)
	}
	if feed[0].Rating == nil || *feed[0].Rating != 9 || feed[0].ReviewExcerpt != "spice" {
		t.Errorf("unexpected finished entry: %+v", feed[0])
	}
}
