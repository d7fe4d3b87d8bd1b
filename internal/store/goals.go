package store

import (
	"context"
	"slices"

	"github.com/readtrack/readtrack-server/internal/domain"
)

// CreateGoal stores a new goal.
func (s *BadgerStore) CreateGoal(ctx context.Context, goal *domain.Goal) error {
	return s.goals.Create(ctx, goal.ID, goal)
}

// GetGoal retrieves a goal by ID.
func (s *BadgerStore) GetGoal(ctx context.Context, id string) (*domain.Goal, error) {
	return s.goals.Get(ctx, id)
}

// UpdateGoal replaces a goal.
func (s *BadgerStore) UpdateGoal(ctx context.Context, goal *domain.Goal) error {
	return s.goals.Update(ctx, goal.ID, goal)
}

// DeleteGoal deletes a goal.
func (s *BadgerStore) DeleteGoal(ctx context.Context, id string) error {
	return s.goals.Delete(ctx, id)
}

// ListGoals returns goals in creation order, optionally only active ones.
func (s *BadgerStore) ListGoals(ctx context.Context, activeOnly bool) ([]*domain.Goal, error) {
	goals, err := s.goals.All(ctx)
	if err != nil {
		return nil, err
	}
	if activeOnly {
		goals = slices.DeleteFunc(goals, func(g *domain.Goal) bool { return !g.Active })
	}
	slices.SortStableFunc(goals, func(a, b *domain.Goal) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return goals, nil
}
