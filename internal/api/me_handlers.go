package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/pagebound-server/internal/domain"
)

func (s *Server) registerMeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMyBadges",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/badges",
		Summary:     "My badges",
		Tags:        []string{"Me"},
		Security:    bearer,
	}, s.handleListMyBadges)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMyStreak",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/streak",
		Summary:     "My reading streak",
		Tags:        []string{"Me"},
		Security:    bearer,
	}, s.handleGetMyStreak)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMyActivity",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/activity",
		Summary:     "My activity feed",
		Description: "Newest first",
		Tags:        []string{"Me"},
		Security:    bearer,
	}, s.handleListMyActivity)
}

// BadgesResponse lists awarded badges.
type BadgesResponse struct {
	Badges []*domain.AwardedBadge `json:"badges"`
}

// BadgesOutput wraps BadgesResponse for Huma.
type BadgesOutput struct {
	Body BadgesResponse
}

// StreakOutput wraps a streak for Huma.
type StreakOutput struct {
	Body *domain.ReadingStreak
}

// ListActivityInput pages the activity feed.
type ListActivityInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"200" doc:"Maximum entries (default 50)"`
}

// ActivityResponse lists feed entries.
type ActivityResponse struct {
	Activities []*domain.Activity `json:"activities"`
}

// ActivityOutput wraps ActivityResponse for Huma.
type ActivityOutput struct {
	Body ActivityResponse
}

func (s *Server) handleListMyBadges(ctx context.Context, _ *struct{}) (*BadgesOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}
	badges, err := s.services.Badges.ListAwarded(ctx, readerID)
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	if badges == nil {
		badges = []*domain.AwardedBadge{}
	}
	return &BadgesOutput{Body: BadgesResponse{Badges: badges}}, nil
}

func (s *Server) handleGetMyStreak(ctx context.Context, _ *struct{}) (*StreakOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}
	streak, err := s.services.Streaks.Get(ctx, readerID)
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	return &StreakOutput{Body: streak}, nil
}

func (s *Server) handleListMyActivity(ctx context.Context, input *ListActivityInput) (*ActivityOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}
	activities, err := s.services.Activity.List(ctx, readerID, input.Limit)
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	if activities == nil {
		activities = []*domain.Activity{}
	}
	return &ActivityOutput{Body: ActivityResponse{Activities: activities}}, nil
}
