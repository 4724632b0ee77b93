package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/fintrack/internal/apperrors"
	"github.com/nkiryanov/fintrack/internal/models"
	"github.com/nkiryanov/fintrack/internal/testutil"
)

func Test_BudgetRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withRepos := func(t *testing.T, fn func(repo *BudgetRepo, user models.User, food models.Category)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			categories := &CategoryRepo{DB: tx}

			user, err := users.CreateUser(t.Context(), "nk@example.com", "nk", "hashed")
			require.NoError(t, err)

			all, err := categories.ListCategories(t.Context(), models.CategoryTypeExpense)
			require.NoError(t, err)
			require.NotEmpty(t, all, "expense categories must be seeded")

			fn(&BudgetRepo{DB: tx}, user, all[0])
		})
	}

	newBudget := func(user models.User, c models.Category, amount string, month int, year int) models.Budget {
		return models.Budget{
			UserID:     user.ID,
			CategoryID: c.ID,
			Amount:     decimal.RequireFromString(amount),
			Month:      month,
			Year:       year,
		}
	}

	t.Run("CreateBudget", func(t *testing.T) {
		t.Run("create ok", func(t *testing.T) {
			withRepos(t, func(repo *BudgetRepo, user models.User, food models.Category) {
				created, err := repo.CreateBudget(t.Context(), newBudget(user, food, "500.00", 8, 2026))

				require.NoError(t, err)
				require.NotEqual(t, uuid.Nil, created.ID)
				require.Equal(t, 8, created.Month)
				require.Equal(t, 2026, created.Year)
				require.Equal(t, food.Name, created.Category.Name, "category must come joined")
			})
		})

		t.Run("duplicate period fails", func(t *testing.T) {
			withRepos(t, func(repo *BudgetRepo, user models.User, food models.Category) {
				_, err := repo.CreateBudget(t.Context(), newBudget(user, food, "500.00", 8, 2026))
				require.NoError(t, err)

				_, err = repo.CreateBudget(t.Context(), newBudget(user, food, "600.00", 8, 2026))
				require.ErrorIs(t, err, apperrors.ErrBudgetAlreadyExists)
			})
		})

		t.Run("same category different month ok", func(t *testing.T) {
			withRepos(t, func(repo *BudgetRepo, user models.User, food models.Category) {
				_, err := repo.CreateBudget(t.Context(), newBudget(user, food, "500.00", 8, 2026))
				require.NoError(t, err)

				_, err = repo.CreateBudget(t.Context(), newBudget(user, food, "500.00", 9, 2026))
				require.NoError(t, err)
			})
		})
	})

	t.Run("ListBudgets", func(t *testing.T) {
		withRepos(t, func(repo *BudgetRepo, user models.User, food models.Category) {
			_, err := repo.CreateBudget(t.Context(), newBudget(user, food, "500.00", 8, 2026))
			require.NoError(t, err)
			_, err = repo.CreateBudget(t.Context(), newBudget(user, food, "600.00", 9, 2026))
			require.NoError(t, err)

			t.Run("all periods", func(t *testing.T) {
				budgets, err := repo.ListBudgets(t.Context(), user.ID, 0, 0)
				require.NoError(t, err)
				require.Len(t, budgets, 2)
				require.Equal(t, 9, budgets[0].Month, "recent period first")
			})

			t.Run("one period", func(t *testing.T) {
				budgets, err := repo.ListBudgets(t.Context(), user.ID, 8, 2026)
				require.NoError(t, err)
				require.Len(t, budgets, 1)
				require.Equal(t, 8, budgets[0].Month)
			})

			t.Run("other user sees nothing", func(t *testing.T) {
				budgets, err := repo.ListBudgets(t.Context(), uuid.New(), 0, 0)
				require.NoError(t, err)
				require.Empty(t, budgets)
			})
		})
	})

	t.Run("UpdateBudget", func(t *testing.T) {
		withRepos(t, func(repo *BudgetRepo, user models.User, food models.Category) {
			created, err := repo.CreateBudget(t.Context(), newBudget(user, food, "500.00", 8, 2026))
			require.NoError(t, err)

			created.Amount = decimal.RequireFromString("750.00")
			updated, err := repo.UpdateBudget(t.Context(), created)

			require.NoError(t, err)
			require.True(t, decimal.RequireFromString("750.00").Equal(updated.Amount))
		})
	})

	t.Run("DeleteBudget", func(t *testing.T) {
		withRepos(t, func(repo *BudgetRepo, user models.User, food models.Category) {
			created, err := repo.CreateBudget(t.Context(), newBudget(user, food, "500.00", 8, 2026))
			require.NoError(t, err)

			require.NoError(t, repo.DeleteBudget(t.Context(), user.ID, created.ID))

			err = repo.DeleteBudget(t.Context(), user.ID, created.ID)
			require.ErrorIs(t, err, apperrors.ErrBudgetNotFound)
		})
	})
}
