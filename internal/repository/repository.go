package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/fintrack/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, email string, name string, hashedPassword string) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Update profile fields, nil means "keep current value"
	// Has to return apperrors.ErrEmailTaken if email belongs to another user
	UpdateProfile(ctx context.Context, userID uuid.UUID, name *string, email *string) (models.User, error)

	// Replace stored password hash
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
}

type CategoryRepo interface {
	// List categories, optionally filtered by type (INCOME or EXPENSE)
	ListCategories(ctx context.Context, categoryType string) ([]models.Category, error)

	// If category not found must return apperrors.ErrCategoryNotFound
	GetCategoryByID(ctx context.Context, categoryID uuid.UUID) (models.Category, error)
}

type TransactionRepo interface {
	CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)

	// Scoped to the owning user
	// If transaction not found must return apperrors.ErrTransactionNotFound
	GetTransaction(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID uuid.UUID, id uuid.UUID) error

	ListTransactions(ctx context.Context, userID uuid.UUID, filter models.TransactionFilter) (models.TransactionPage, error)

	// Aggregations used by budgets and analytics
	SumAmount(ctx context.Context, userID uuid.UUID, txType string, from time.Time, to time.Time) (decimal.Decimal, error)
	SumCategoryExpenses(ctx context.Context, userID uuid.UUID, categoryID uuid.UUID, from time.Time, to time.Time) (decimal.Decimal, error)
	ExpensesByCategory(ctx context.Context, userID uuid.UUID, from time.Time, to time.Time) (map[string]decimal.Decimal, error)
	MonthlyTotals(ctx context.Context, userID uuid.UUID, from time.Time, to time.Time) ([]models.MonthlyTrend, error)
	CategoryTotals(ctx context.Context, userID uuid.UUID, from time.Time, to time.Time) ([]models.CategorySpending, error)
}

type BudgetRepo interface {
	// If budget for user+category+period exists already
	// has to return apperrors.ErrBudgetAlreadyExists
	CreateBudget(ctx context.Context, b models.Budget) (models.Budget, error)

	// If budget not found must return apperrors.ErrBudgetNotFound
	GetBudget(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Budget, error)
	UpdateBudget(ctx context.Context, b models.Budget) (models.Budget, error)
	DeleteBudget(ctx context.Context, userID uuid.UUID, id uuid.UUID) error

	// List budgets, month/year zero means "any"
	ListBudgets(ctx context.Context, userID uuid.UUID, month int, year int) ([]models.Budget, error)
}

type GoalRepo interface {
	CreateGoal(ctx context.Context, g models.Goal) (models.Goal, error)

	// If goal not found must return apperrors.ErrGoalNotFound
	GetGoal(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Goal, error)
	UpdateGoal(ctx context.Context, g models.Goal) (models.Goal, error)
	DeleteGoal(ctx context.Context, userID uuid.UUID, id uuid.UUID) error

	// List goals, empty status means "any"
	ListGoals(ctx context.Context, userID uuid.UUID, status string) ([]models.Goal, error)
}

// Storage aggregates all repositories over a single connection source
type Storage interface {
	User() UserRepo
	Category() CategoryRepo
	Transaction() TransactionRepo
	Budget() BudgetRepo
	Goal() GoalRepo

	// Run fn inside a database transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
