package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/id"
	"github.com/readtrack/readtrack-server/internal/store"
	"github.com/readtrack/readtrack-server/internal/validation"
)

// GoalService manages reading goals and computes their live progress.
type GoalService struct {
	store     store.Store
	stats     *StatsService
	validator *validation.Validator
	clock     Clock
	logger    *slog.Logger
}

// NewGoalService creates a new goal service.
func NewGoalService(store store.Store, stats *StatsService, validator *validation.Validator, clock Clock, logger *slog.Logger) *GoalService {
	return &GoalService{
		store:     store,
		stats:     stats,
		validator: validator,
		clock:     clock,
		logger:    logger,
	}
}

// CreateGoalInput holds the fields for a new goal.
type CreateGoalInput struct {
	Type   domain.GoalType   `json:"type" validate:"required,goal_type"`
	Target int               `json:"target" validate:"gt=0"`
	Period domain.GoalPeriod `json:"period" validate:"required,goal_period"`
}

// Create adds an active goal starting now.
func (s *GoalService) Create(ctx context.Context, in CreateGoalInput) (*domain.Goal, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	goalID, err := id.Generate(id.PrefixGoal)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	goal := &domain.Goal{
		Record:    domain.Record{ID: goalID},
		Type:      in.Type,
		Target:    in.Target,
		Period:    in.Period,
		StartDate: now,
		Active:    true,
	}
	goal.InitTimestamps(now)

	if err := s.store.CreateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	s.logger.Info("goal created", "goal_id", goal.ID, "type", goal.Type, "target", goal.Target, "period", goal.Period)
	return goal, nil
}

// Get returns a goal by ID.
func (s *GoalService) Get(ctx context.Context, goalID string) (*domain.Goal, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, storeError(err, "goal", goalID)
	}
	return goal, nil
}

// List returns goals in creation order, optionally only the active ones.
func (s *GoalService) List(ctx context.Context, activeOnly bool) ([]*domain.Goal, error) {
	return s.store.ListGoals(ctx, activeOnly)
}

// ListActive returns the active goals.
func (s *GoalService) ListActive(ctx context.Context) ([]*domain.Goal, error) {
	return s.List(ctx, true)
}

// UpdateGoalInput holds the fields that may change. Nil fields are left alone.
type UpdateGoalInput struct {
	Type   *domain.GoalType   `json:"type,omitempty" validate:"omitempty,goal_type"`
	Target *int               `json:"target,omitempty" validate:"omitempty,gt=0"`
	Period *domain.GoalPeriod `json:"period,omitempty" validate:"omitempty,goal_period"`
	Active *bool              `json:"active,omitempty"`
}

// Update applies in to a goal.
func (s *GoalService) Update(ctx context.Context, goalID string, in UpdateGoalInput) (*domain.Goal, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	goal, err := s.Get(ctx, goalID)
	if err != nil {
		return nil, err
	}

	if in.Type != nil {
		goal.Type = *in.Type
	}
	if in.Target != nil {
		goal.Target = *in.Target
	}
	if in.Period != nil {
		goal.Period = *in.Period
	}
	if in.Active != nil {
		goal.Active = *in.Active
	}
	goal.Touch(s.clock.Now())

	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return nil, storeError(err, "goal", goalID)
	}
	return goal, nil
}

// Deactivate marks a goal inactive and stamps its end date.
func (s *GoalService) Deactivate(ctx context.Context, goalID string) (*domain.Goal, error) {
	goal, err := s.Get(ctx, goalID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	goal.Active = false
	goal.EndDate = &now
	goal.Touch(now)

	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return nil, storeError(err, "goal", goalID)
	}
	return goal, nil
}

// Delete removes a goal.
func (s *GoalService) Delete(ctx context.Context, goalID string) error {
	if _, err := s.Get(ctx, goalID); err != nil {
		return err
	}
	return s.store.DeleteGoal(ctx, goalID)
}

// Progress computes a goal's standing in the calendar window containing today.
//
//   - daily-reading: distinct reading days in the window
//   - books-per-month, books-per-year: books completed in the window
//   - pages-per-day: pages read in the window
//   - reading-streak: the current streak, regardless of window
func (s *GoalService) Progress(ctx context.Context, goal *domain.Goal) (domain.GoalProgress, error) {
	window := goal.Period.Window(s.clock.Today())

	var current int
	switch goal.Type {
	case domain.GoalDailyReading:
		n, err := s.stats.ActiveDays(ctx, &window)
		if err != nil {
			return domain.GoalProgress{}, err
		}
		current = n

	case domain.GoalBooksPerMonth, domain.GoalBooksPerYear:
		completed, err := s.store.ListBooksByStatus(ctx, domain.StatusCompleted)
		if err != nil {
			return domain.GoalProgress{}, fmt.Errorf("list completed books: %w", err)
		}
		for _, b := range completed {
			if b.IsCompletedIn(window, s.clock.Location) {
				current++
			}
		}

	case domain.GoalPagesPerDay:
		sessions, err := s.store.ListReadingSessionsInRange(ctx, window)
		if err != nil {
			return domain.GoalProgress{}, fmt.Errorf("list sessions: %w", err)
		}
		for _, rs := range sessions {
			current += rs.Pages()
		}

	case domain.GoalReadingStreak:
		n, err := s.stats.CurrentStreak(ctx)
		if err != nil {
			return domain.GoalProgress{}, err
		}
		current = n
	}

	return domain.NewGoalProgress(goal, window, current), nil
}

// ProgressByID loads a goal and computes its progress.
func (s *GoalService) ProgressByID(ctx context.Context, goalID string) (domain.GoalProgress, error) {
	goal, err := s.Get(ctx, goalID)
	if err != nil {
		return domain.GoalProgress{}, err
	}
	return s.Progress(ctx, goal)
}

// AllWithProgress returns every active goal with its progress.
func (s *GoalService) AllWithProgress(ctx context.Context) ([]domain.GoalProgress, error) {
	goals, err := s.store.ListGoals(ctx, true)
	if err != nil {
		return nil, err
	}

	out := make([]domain.GoalProgress, 0, len(goals))
	for _, g := range goals {
		p, err := s.Progress(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("progress for goal %s: %w", g.ID, err)
		}
		out = append(out, p)
	}
	return out, nil
}
