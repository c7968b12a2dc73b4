package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/service"
)

func (s *Server) registerChallengeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createChallenge",
		Method:        http.MethodPost,
		Path:          "/api/v1/challenges",
		Summary:       "Create challenge",
		Tags:          []string{"Challenges"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
	}, s.handleCreateChallenge)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMyChallenges",
		Method:      http.MethodGet,
		Path:        "/api/v1/challenges",
		Summary:     "List my challenges",
		Description: "Challenges the reader has joined, with progress",
		Tags:        []string{"Challenges"},
		Security:    bearer,
	}, s.handleListMyChallenges)

	huma.Register(s.api, huma.Operation{
		OperationID: "joinChallenge",
		Method:      http.MethodPost,
		Path:        "/api/v1/challenges/{id}/join",
		Summary:     "Join challenge",
		Tags:        []string{"Challenges"},
		Security:    bearer,
	}, s.handleJoinChallenge)
}

// CreateChallengeRequest is the body of POST /challenges.
type CreateChallengeRequest struct {
	Name        string `json:"name" validate:"required,max=120" doc:"Challenge name"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Kind        string `json:"kind" validate:"required,challenge_kind" doc:"BOOKS or PAGES"`
	TargetValue int    `json:"target_value" validate:"gte=1" doc:"Books or pages to reach"`
	StartDate   Date   `json:"start_date" doc:"First day of the window"`
	EndDate     Date   `json:"end_date" doc:"Last day of the window, inclusive"`
}

// CreateChallengeInput wraps the create challenge request for Huma.
type CreateChallengeInput struct {
	Body CreateChallengeRequest
}

// ChallengeOutput wraps a challenge for Huma.
type ChallengeOutput struct {
	Body *domain.Challenge
}

// ChallengeIDInput identifies a challenge.
type ChallengeIDInput struct {
	ID string `path:"id" doc:"Challenge ID"`
}

// MembershipOutput wraps a membership for Huma.
type MembershipOutput struct {
	Body *domain.UserChallenge
}

// MembershipResponse is a joined challenge with the reader's progress.
type MembershipResponse struct {
	Challenge *domain.Challenge     `json:"challenge"`
	Progress  *domain.UserChallenge `json:"progress"`
}

// MembershipsResponse lists joined challenges.
type MembershipsResponse struct {
	Challenges []MembershipResponse `json:"challenges"`
}

// MembershipsOutput wraps MembershipsResponse for Huma.
type MembershipsOutput struct {
	Body MembershipsResponse
}

func (s *Server) handleCreateChallenge(ctx context.Context, input *CreateChallengeInput) (*ChallengeOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, input.Body); err != nil {
		return nil, err
	}

	c, err := s.services.Challenges.Create(ctx, readerID, service.CreateChallengeInput{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Kind:        domain.ChallengeKind(input.Body.Kind),
		TargetValue: input.Body.TargetValue,
		StartDate:   input.Body.StartDate.Time,
		EndDate:     input.Body.EndDate.Time,
	})
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	return &ChallengeOutput{Body: c}, nil
}

func (s *Server) handleListMyChallenges(ctx context.Context, _ *struct{}) (*MembershipsOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}
	memberships, err := s.services.Challenges.ListForReader(ctx, readerID)
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	out := make([]MembershipResponse, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, MembershipResponse{Challenge: m.Challenge, Progress: m.Progress})
	}
	return &MembershipsOutput{Body: MembershipsResponse{Challenges: out}}, nil
}

func (s *Server) handleJoinChallenge(ctx context.Context, input *ChallengeIDInput) (*MembershipOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}
	uc, err := s.services.Challenges.Join(ctx, readerID, input.ID)
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	return &MembershipOutput{Body: uc}, nil
}
