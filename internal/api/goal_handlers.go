package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/pagebound-server/internal/domain"
)

func (s *Server) registerGoalRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGoals",
		Method:      http.MethodGet,
		Path:        "/api/v1/goals",
		Summary:     "List my goals",
		Tags:        []string{"Goals"},
		Security:    bearer,
	}, s.handleListGoals)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGoal",
		Method:      http.MethodGet,
		Path:        "/api/v1/goals/{year}",
		Summary:     "Get my goal for a year",
		Tags:        []string{"Goals"},
		Security:    bearer,
	}, s.handleGetGoal)

	huma.Register(s.api, huma.Operation{
		OperationID: "setGoal",
		Method:      http.MethodPut,
		Path:        "/api/v1/goals/{year}",
		Summary:     "Set my goal for a year",
		Description: "Creates or retargets the goal and counts books already finished that year",
		Tags:        []string{"Goals"},
		Security:    bearer,
	}, s.handleSetGoal)
}

// GoalYearInput identifies a goal year.
type GoalYearInput struct {
	Year int `path:"year" doc:"Calendar year"`
}

// SetGoalRequest is the body of PUT /goals/{year}.
type SetGoalRequest struct {
	TargetBooks int `json:"target_books" validate:"gte=1" doc:"Books to finish"`
}

// SetGoalInput wraps the set goal request for Huma.
type SetGoalInput struct {
	Year int `path:"year" doc:"Calendar year"`
	Body SetGoalRequest
}

// GoalOutput wraps a goal for Huma.
type GoalOutput struct {
	Body *domain.ReadingGoal
}

// GoalsResponse lists goals.
type GoalsResponse struct {
	Goals []*domain.ReadingGoal `json:"goals"`
}

// GoalsOutput wraps GoalsResponse for Huma.
type GoalsOutput struct {
	Body GoalsResponse
}

func (s *Server) handleListGoals(ctx context.Context, _ *struct{}) (*GoalsOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}
	goals, err := s.services.Goals.ListGoals(ctx, readerID)
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	if goals == nil {
		goals = []*domain.ReadingGoal{}
	}
	return &GoalsOutput{Body: GoalsResponse{Goals: goals}}, nil
}

func (s *Server) handleGetGoal(ctx context.Context, input *GoalYearInput) (*GoalOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}
	goal, err := s.services.Goals.GetGoal(ctx, readerID, input.Year)
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	return &GoalOutput{Body: goal}, nil
}

func (s *Server) handleSetGoal(ctx context.Context, input *SetGoalInput) (*GoalOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, input.Body); err != nil {
		return nil, err
	}
	goal, err := s.services.Goals.SetGoal(ctx, readerID, input.Year, input.Body.TargetBooks)
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	return &GoalOutput{Body: goal}, nil
}
