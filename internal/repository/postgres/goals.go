package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/fintrack/internal/apperrors"
	"github.com/nkiryanov/fintrack/internal/models"
)

type GoalRepo struct {
	DB DBTX
}

const createGoal = `-- name: Create goal
INSERT INTO goals (id, user_id, title, description, target_amount, current_amount, target_date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
RETURNING id, user_id, title, description, target_amount, current_amount, target_date, status, created_at, updated_at
`

func (r *GoalRepo) CreateGoal(ctx context.Context, g models.Goal) (models.Goal, error) {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Status == "" {
		g.Status = models.GoalStatusInProgress
	}

	rows, _ := r.DB.Query(ctx, createGoal, g.ID, g.UserID, g.Title, g.Description, g.TargetAmount, g.CurrentAmount, g.TargetDate, g.Status, time.Now())
	goal, err := pgx.CollectOneRow(rows, scanGoal)
	if err != nil {
		return g, fmt.Errorf("db error: %w", err)
	}
	return goal, nil
}

const getGoal = `-- name: Get goal
SELECT id, user_id, title, description, target_amount, current_amount, target_date, status, created_at, updated_at
FROM goals
WHERE user_id = $1 AND id = $2
`

func (r *GoalRepo) GetGoal(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Goal, error) {
	rows, _ := r.DB.Query(ctx, getGoal, userID, id)
	goal, err := pgx.CollectOneRow(rows, scanGoal)

	switch {
	case err == nil:
		return goal, nil
	case errors.Is(err, pgx.ErrNoRows):
		return goal, fmt.Errorf("repo error: %w", apperrors.ErrGoalNotFound)
	default:
		return goal, fmt.Errorf("db error: %w", err)
	}
}

const updateGoal = `-- name: Update goal
UPDATE goals
SET title = $3, description = $4, target_amount = $5, current_amount = $6, target_date = $7, status = $8, updated_at = $9
WHERE user_id = $1 AND id = $2
RETURNING id, user_id, title, description, target_amount, current_amount, target_date, status, created_at, updated_at
`

func (r *GoalRepo) UpdateGoal(ctx context.Context, g models.Goal) (models.Goal, error) {
	rows, _ := r.DB.Query(ctx, updateGoal, g.UserID, g.ID, g.Title, g.Description, g.TargetAmount, g.CurrentAmount, g.TargetDate, g.Status, time.Now())
	goal, err := pgx.CollectOneRow(rows, scanGoal)

	switch {
	case err == nil:
		return goal, nil
	case errors.Is(err, pgx.ErrNoRows):
		return goal, fmt.Errorf("repo error: %w", apperrors.ErrGoalNotFound)
	default:
		return goal, fmt.Errorf("db error: %w", err)
	}
}

const deleteGoal = `-- name: Delete goal
DELETE FROM goals
WHERE user_id = $1 AND id = $2
`

func (r *GoalRepo) DeleteGoal(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteGoal, userID, id)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return fmt.Errorf("repo error: %w", apperrors.ErrGoalNotFound)
	default:
		return nil
	}
}

const listGoals = `-- name: List goals
SELECT id, user_id, title, description, target_amount, current_amount, target_date, status, created_at, updated_at
FROM goals
WHERE user_id = $1 AND ($2 = '' OR status = $2)
ORDER BY created_at DESC
`

func (r *GoalRepo) ListGoals(ctx context.Context, userID uuid.UUID, status string) ([]models.Goal, error) {
	rows, _ := r.DB.Query(ctx, listGoals, userID, status)
	goals, err := pgx.CollectRows(rows, scanGoal)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return goals, nil
}

func scanGoal(row pgx.CollectableRow) (models.Goal, error) {
	var g models.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.TargetAmount, &g.CurrentAmount, &g.TargetDate, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}
