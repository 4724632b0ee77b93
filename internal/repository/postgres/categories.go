package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/fintrack/internal/apperrors"
	"github.com/nkiryanov/fintrack/internal/models"
)

type CategoryRepo struct {
	DB DBTX
}

const listCategories = `-- name: List categories
SELECT id, name, type, created_at
FROM categories
WHERE ($1 = '' OR type = $1)
ORDER BY type, name
`

func (r *CategoryRepo) ListCategories(ctx context.Context, categoryType string) ([]models.Category, error) {
	rows, _ := r.DB.Query(ctx, listCategories, categoryType)
	categories, err := pgx.CollectRows(rows, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return categories, nil
}

const getCategoryByID = `-- name: Get category by id
SELECT id, name, type, created_at
FROM categories
WHERE id = $1
`

func (r *CategoryRepo) GetCategoryByID(ctx context.Context, categoryID uuid.UUID) (models.Category, error) {
	rows, _ := r.DB.Query(ctx, getCategoryByID, categoryID)
	category, err := pgx.CollectOneRow(rows, scanCategory)

	switch {
	case err == nil:
		return category, nil
	case errors.Is(err, pgx.ErrNoRows):
		return category, fmt.Errorf("repo error: %w", apperrors.ErrCategoryNotFound)
	default:
		return category, fmt.Errorf("db error: %w", err)
	}
}

func scanCategory(row pgx.CollectableRow) (models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt)
	return c, err
}
