package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/fintrack/internal/apperrors"
	"github.com/nkiryanov/fintrack/internal/models"
)

type BudgetRepo struct {
	DB DBTX
}

const createBudget = `-- name: Create budget
INSERT INTO budgets (id, user_id, category_id, amount, month, year, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
RETURNING id
`

func (r *BudgetRepo) CreateBudget(ctx context.Context, b models.Budget) (models.Budget, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createBudget, b.ID, b.UserID, b.CategoryID, b.Amount, b.Month, b.Year, time.Now())
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return r.GetBudget(ctx, b.UserID, b.ID)
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return b, fmt.Errorf("repo error: %w", apperrors.ErrBudgetAlreadyExists)
	default:
		return b, fmt.Errorf("db error: %w", err)
	}
}

const getBudget = `-- name: Get budget with category
SELECT b.id, b.user_id, b.category_id, b.amount, b.month, b.year, b.created_at, b.updated_at,
       c.id, c.name, c.type, c.created_at
FROM budgets b
JOIN categories c ON c.id = b.category_id
WHERE b.user_id = $1 AND b.id = $2
`

func (r *BudgetRepo) GetBudget(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Budget, error) {
	rows, _ := r.DB.Query(ctx, getBudget, userID, id)
	b, err := pgx.CollectOneRow(rows, scanBudget)

	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, pgx.ErrNoRows):
		return b, fmt.Errorf("repo error: %w", apperrors.ErrBudgetNotFound)
	default:
		return b, fmt.Errorf("db error: %w", err)
	}
}

const updateBudget = `-- name: Update budget
UPDATE budgets
SET category_id = $3, amount = $4, month = $5, year = $6, updated_at = $7
WHERE user_id = $1 AND id = $2
RETURNING id
`

func (r *BudgetRepo) UpdateBudget(ctx context.Context, b models.Budget) (models.Budget, error) {
	rows, _ := r.DB.Query(ctx, updateBudget, b.UserID, b.ID, b.CategoryID, b.Amount, b.Month, b.Year, time.Now())
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return r.GetBudget(ctx, b.UserID, b.ID)
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return b, fmt.Errorf("repo error: %w", apperrors.ErrBudgetAlreadyExists)
	case errors.Is(err, pgx.ErrNoRows):
		return b, fmt.Errorf("repo error: %w", apperrors.ErrBudgetNotFound)
	default:
		return b, fmt.Errorf("db error: %w", err)
	}
}

const deleteBudget = `-- name: Delete budget
DELETE FROM budgets
WHERE user_id = $1 AND id = $2
`

func (r *BudgetRepo) DeleteBudget(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteBudget, userID, id)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return fmt.Errorf("repo error: %w", apperrors.ErrBudgetNotFound)
	default:
		return nil
	}
}

const listBudgets = `-- name: List budgets
SELECT b.id, b.user_id, b.category_id, b.amount, b.month, b.year, b.created_at, b.updated_at,
       c.id, c.name, c.type, c.created_at
FROM budgets b
JOIN categories c ON c.id = b.category_id
WHERE b.user_id = $1
  AND ($2 = 0 OR b.month = $2)
  AND ($3 = 0 OR b.year = $3)
ORDER BY b.year DESC, b.month DESC
`

func (r *BudgetRepo) ListBudgets(ctx context.Context, userID uuid.UUID, month int, year int) ([]models.Budget, error) {
	rows, _ := r.DB.Query(ctx, listBudgets, userID, month, year)
	budgets, err := pgx.CollectRows(rows, scanBudget)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return budgets, nil
}

func scanBudget(row pgx.CollectableRow) (models.Budget, error) {
	var b models.Budget
	err := row.Scan(
		&b.ID, &b.UserID, &b.CategoryID, &b.Amount, &b.Month, &b.Year, &b.CreatedAt, &b.UpdatedAt,
		&b.Category.ID, &b.Category.Name, &b.Category.Type, &b.Category.CreatedAt,
	)
	return b, err
}
