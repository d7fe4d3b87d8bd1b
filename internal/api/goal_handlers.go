package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/service"
)

func (s *Server) registerGoalRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGoals",
		Method:      http.MethodGet,
		Path:        "/api/v1/goals",
		Summary:     "List goals",
		Description: "Lists active goals, or all goals with all=true",
		Tags:        []string{"Goals"},
	}, s.handleListGoals)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createGoal",
		Method:        http.MethodPost,
		Path:          "/api/v1/goals",
		Summary:       "Create goal",
		Description:   "Creates an active goal starting now",
		Tags:          []string{"Goals"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateGoal)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGoalProgress",
		Method:      http.MethodGet,
		Path:        "/api/v1/goals/progress",
		Summary:     "Progress of active goals",
		Description: "Computes progress for every active goal in its current window",
		Tags:        []string{"Goals"},
	}, s.handleListGoalProgress)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGoal",
		Method:      http.MethodGet,
		Path:        "/api/v1/goals/{id}",
		Summary:     "Get goal",
		Tags:        []string{"Goals"},
	}, s.handleGetGoal)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateGoal",
		Method:      http.MethodPatch,
		Path:        "/api/v1/goals/{id}",
		Summary:     "Update goal",
		Tags:        []string{"Goals"},
	}, s.handleUpdateGoal)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteGoal",
		Method:        http.MethodDelete,
		Path:          "/api/v1/goals/{id}",
		Summary:       "Delete goal",
		Tags:          []string{"Goals"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteGoal)

	huma.Register(s.api, huma.Operation{
		OperationID: "deactivateGoal",
		Method:      http.MethodPost,
		Path:        "/api/v1/goals/{id}/deactivate",
		Summary:     "Deactivate goal",
		Description: "Marks a goal inactive and stamps its end date",
		Tags:        []string{"Goals"},
	}, s.handleDeactivateGoal)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGoalProgress",
		Method:      http.MethodGet,
		Path:        "/api/v1/goals/{id}/progress",
		Summary:     "Goal progress",
		Description: "Computes a goal's progress in its current window",
		Tags:        []string{"Goals"},
	}, s.handleGetGoalProgress)
}

// === DTOs ===

// ListGoalsInput contains parameters for listing goals.
type ListGoalsInput struct {
	All bool `query:"all" doc:"Include inactive goals"`
}

// GoalsResponse contains a list of goals.
type GoalsResponse struct {
	Goals []*domain.Goal `json:"goals"`
}

// GoalsOutput wraps a list of goals for Huma.
type GoalsOutput struct {
	Body GoalsResponse
}

// CreateGoalInput wraps the create goal request for Huma.
type CreateGoalInput struct {
	Body service.CreateGoalInput
}

// GoalOutput wraps a goal for Huma.
type GoalOutput struct {
	Body *domain.Goal
}

// GoalIDInput identifies a goal.
type GoalIDInput struct {
	ID string `path:"id" doc:"Goal ID"`
}

// UpdateGoalInput wraps the update goal request for Huma.
type UpdateGoalInput struct {
	ID   string `path:"id" doc:"Goal ID"`
	Body service.UpdateGoalInput
}

// GoalProgressOutput wraps one goal's progress for Huma.
type GoalProgressOutput struct {
	Body domain.GoalProgress
}

// GoalProgressListResponse contains progress for several goals.
type GoalProgressListResponse struct {
	Goals []domain.GoalProgress `json:"goals"`
}

// GoalProgressListOutput wraps progress for several goals for Huma.
type GoalProgressListOutput struct {
	Body GoalProgressListResponse
}

// === Handlers ===

func (s *Server) handleListGoals(ctx context.Context, input *ListGoalsInput) (*GoalsOutput, error) {
	goals, err := s.services.Goal.List(ctx, !input.All)
	if err != nil {
		return nil, err
	}
	return &GoalsOutput{Body: GoalsResponse{Goals: nonNil(goals)}}, nil
}

func (s *Server) handleCreateGoal(ctx context.Context, input *CreateGoalInput) (*GoalOutput, error) {
	goal, err := s.services.Goal.Create(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &GoalOutput{Body: goal}, nil
}

func (s *Server) handleListGoalProgress(ctx context.Context, _ *struct{}) (*GoalProgressListOutput, error) {
	progress, err := s.services.Goal.AllWithProgress(ctx)
	if err != nil {
		return nil, err
	}
	return &GoalProgressListOutput{Body: GoalProgressListResponse{Goals: progress}}, nil
}

func (s *Server) handleGetGoal(ctx context.Context, input *GoalIDInput) (*GoalOutput, error) {
	goal, err := s.services.Goal.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &GoalOutput{Body: goal}, nil
}

func (s *Server) handleUpdateGoal(ctx context.Context, input *UpdateGoalInput) (*GoalOutput, error) {
	goal, err := s.services.Goal.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &GoalOutput{Body: goal}, nil
}

func (s *Server) handleDeleteGoal(ctx context.Context, input *GoalIDInput) (*struct{}, error) {
	if err := s.services.Goal.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleDeactivateGoal(ctx context.Context, input *GoalIDInput) (*GoalOutput, error) {
	goal, err := s.services.Goal.Deactivate(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &GoalOutput{Body: goal}, nil
}

func (s *Server) handleGetGoalProgress(ctx context.Context, input *GoalIDInput) (*GoalProgressOutput, error) {
	progress, err := s.services.Goal.ProgressByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &GoalProgressOutput{Body: progress}, nil
}
