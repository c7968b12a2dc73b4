package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store"
)

func testBadge(id string) *domain.Badge {
	return &domain.Badge{
		ID:          id,
		Name:        "Bookworm Beginner",
		Description: "Finished 5 books",
		Type:        domain.BadgeReadingMilestone,
		Criteria:    []byte(`{"metric":"finished_books","threshold":5}`),
		Points:      10,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestCreateAndGetBadge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateBadge(ctx, testBadge("badge-1")); err != nil {
		t.Fatalf("CreateBadge: %v", err)
	}

	got, err := s.GetBadgeByName(ctx, "Bookworm Beginner", domain.BadgeReadingMilestone)
	if err != nil {
		t.Fatalf("GetBadgeByName: %v", err)
	}
	if got.ID != "badge-1" || got.Points != 10 {
		t.Errorf("unexpected badge: %+v", got)
	}
	if string(got.Criteria) != `{"metric":"finished_books","threshold":5}` {
		t.Errorf("criteria: got %s", got.Criteria)
	}

	// Same name under a different type is a different badge.
	other := testBadge("badge-2")
	other.Type = domain.BadgeReviewMaster
	if err := s.CreateBadge(ctx, other); err != nil {
		t.Fatalf("CreateBadge(other type): %v", err)
	}

	if _, err := s.GetBadgeByName(ctx, "Nope", domain.BadgeReadingMilestone); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateBadge_ConcurrentCreatorsOneWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		existed int
		other   []error
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateBadge(ctx, testBadge(fmt.Sprintf("badge-%d", i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, store.ErrAlreadyExists):
				existed++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if created != 1 || existed != n-1 {
		t.Errorf("created=%d existed=%d, want 1 and %d", created, existed, n-1)
	}

	all, err := s.ListBadges(ctx)
	if err != nil {
		t.Fatalf("ListBadges: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 badge row, got %d", len(all))
	}
}

func TestUserBadges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateBadge(ctx, testBadge("badge-1")); err != nil {
		t.Fatalf("CreateBadge: %v", err)
	}

	if _, err := s.GetUserBadge(ctx, "reader-1", "badge-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before award, got %v", err)
	}

	ub := &domain.UserBadge{ReaderID: "reader-1", BadgeID: "badge-1", AwardedAt: time.Now().UTC()}
	if err := s.CreateUserBadge(ctx, ub); err != nil {
		t.Fatalf("CreateUserBadge: %v", err)
	}
	if err := s.CreateUserBadge(ctx, ub); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on duplicate award, got %v", err)
	}

	list, err := s.ListUserBadges(ctx, "reader-1")
	if err != nil {
		t.Fatalf("ListUserBadges: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Bookworm Beginner" {
		t.Errorf("unexpected awarded badges: %+v", list)
	}
}
