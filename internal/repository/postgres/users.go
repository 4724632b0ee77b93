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

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: Create user
INSERT INTO users (id, email, name, hashed_password, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
RETURNING id, email, name, hashed_password, created_at, updated_at
`

func (r *UserRepo) CreateUser(ctx context.Context, email string, name string, hashedPassword string) (models.User, error) {
	now := time.Now()
	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), email, name, hashedPassword, now)
	user, err := pgx.CollectOneRow(rows, scanUser)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return user, nil
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return user, fmt.Errorf("repo error: %w", apperrors.ErrUserAlreadyExists)
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByID = `-- name: Get user by id
SELECT id, email, name, hashed_password, created_at, updated_at
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	return collectUser(rows)
}

const getUserByEmail = `-- name: Get user by email
SELECT id, email, name, hashed_password, created_at, updated_at
FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	return collectUser(rows)
}

const updateProfile = `-- name: Update user profile
UPDATE users
SET name = COALESCE($2, name),
    email = COALESCE($3, email),
    updated_at = $4
WHERE id = $1
RETURNING id, email, name, hashed_password, created_at, updated_at
`

func (r *UserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, name *string, email *string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateProfile, userID, name, email, time.Now())
	user, err := pgx.CollectOneRow(rows, scanUser)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return user, nil
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return user, fmt.Errorf("repo error: %w", apperrors.ErrEmailTaken)
	case errors.Is(err, pgx.ErrNoRows):
		return user, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const updatePassword = `-- name: Update user password hash
UPDATE users
SET hashed_password = $2, updated_at = $3
WHERE id = $1
`

func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	tag, err := r.DB.Exec(ctx, updatePassword, userID, hashedPassword, time.Now())
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		return nil
	}
}

func scanUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.HashedPassword, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, scanUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}
