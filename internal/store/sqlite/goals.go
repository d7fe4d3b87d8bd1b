package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/store"
)

const goalColumns = `id, type, target, period, start_date, end_date, active, created_at, updated_at`

func scanGoal(sc scanner) (*domain.Goal, error) {
	var (
		g                           domain.Goal
		goalType, period, startDate string
		createdAt, updatedAt        string
		endDate                     sql.NullString
		active                      int
	)

	err := sc.Scan(&g.ID, &goalType, &g.Target, &period, &startDate, &endDate, &active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	g.Type = domain.GoalType(goalType)
	g.Period = domain.GoalPeriod(period)
	g.Active = active != 0

	if g.StartDate, err = parseTime(startDate); err != nil {
		return nil, err
	}
	if g.EndDate, err = parseNullableTime(endDate); err != nil {
		return nil, err
	}
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if g.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGoal inserts a goal.
func (s *Store) CreateGoal(ctx context.Context, goal *domain.Goal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, string(goal.Type), goal.Target, string(goal.Period),
		formatTime(goal.StartDate), nullTimeString(goal.EndDate), boolToInt(goal.Active),
		formatTime(goal.CreatedAt), formatTime(goal.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetGoal retrieves a goal by ID.
func (s *Store) GetGoal(ctx context.Context, id string) (*domain.Goal, error) {
	g, err := scanGoal(s.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return g, err
}

// UpdateGoal replaces a goal row.
func (s *Store) UpdateGoal(ctx context.Context, goal *domain.Goal) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE goals SET type = ?, target = ?, period = ?, start_date = ?, end_date = ?,
			active = ?, created_at = ?, updated_at = ?
		WHERE id = ?`,
		string(goal.Type), goal.Target, string(goal.Period),
		formatTime(goal.StartDate), nullTimeString(goal.EndDate), boolToInt(goal.Active),
		formatTime(goal.CreatedAt), formatTime(goal.UpdatedAt),
		goal.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// DeleteGoal deletes a goal.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	return err
}

// ListGoals returns goals in creation order, optionally only active ones.
func (s *Store) ListGoals(ctx context.Context, activeOnly bool) ([]*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanGoal)
}
