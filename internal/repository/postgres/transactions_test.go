package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/fintrack/internal/apperrors"
	"github.com/nkiryanov/fintrack/internal/models"
	"github.com/nkiryanov/fintrack/internal/testutil"
)

func Test_TransactionRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Find a seeded category by name
	category := func(t *testing.T, repo *CategoryRepo, name string) models.Category {
		t.Helper()
		categories, err := repo.ListCategories(t.Context(), "")
		require.NoError(t, err)
		for _, c := range categories {
			if c.Name == name {
				return c
			}
		}
		t.Fatalf("category %q not seeded", name)
		return models.Category{}
	}

	withRepos := func(t *testing.T, fn func(repo *TransactionRepo, user models.User, food models.Category, salary models.Category)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			categories := &CategoryRepo{DB: tx}

			user, err := users.CreateUser(t.Context(), "nk@example.com", "nk", "hashed")
			require.NoError(t, err)

			fn(&TransactionRepo{DB: tx}, user, category(t, categories, "Food"), category(t, categories, "Salary"))
		})
	}

	newTx := func(user models.User, c models.Category, amount string, date time.Time, description string) models.Transaction {
		return models.Transaction{
			UserID:      user.ID,
			CategoryID:  c.ID,
			Amount:      decimal.RequireFromString(amount),
			Description: description,
			Date:        date,
			Type:        c.Type,
		}
	}

	t.Run("CreateTransaction", func(t *testing.T) {
		withRepos(t, func(repo *TransactionRepo, user models.User, food models.Category, _ models.Category) {
			date := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

			created, err := repo.CreateTransaction(t.Context(), newTx(user, food, "42.50", date, "groceries"))

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, created.ID)
			require.True(t, decimal.RequireFromString("42.50").Equal(created.Amount))
			require.Equal(t, "groceries", created.Description)
			require.Equal(t, models.CategoryTypeExpense, created.Type)
			require.Equal(t, "Food", created.Category.Name, "category must come joined")
		})
	})

	t.Run("GetTransaction", func(t *testing.T) {
		t.Run("not found", func(t *testing.T) {
			withRepos(t, func(repo *TransactionRepo, user models.User, _ models.Category, _ models.Category) {
				_, err := repo.GetTransaction(t.Context(), user.ID, uuid.New())
				require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
			})
		})

		t.Run("scoped to owner", func(t *testing.T) {
			withRepos(t, func(repo *TransactionRepo, user models.User, food models.Category, _ models.Category) {
				created, err := repo.CreateTransaction(t.Context(), newTx(user, food, "10.00", time.Now(), ""))
				require.NoError(t, err)

				_, err = repo.GetTransaction(t.Context(), uuid.New(), created.ID)
				require.ErrorIs(t, err, apperrors.ErrTransactionNotFound, "foreign transaction must stay invisible")
			})
		})
	})

	t.Run("ListTransactions", func(t *testing.T) {
		seed := func(t *testing.T, repo *TransactionRepo, user models.User, food models.Category, salary models.Category) {
			t.Helper()
			for _, tx := range []models.Transaction{
				newTx(user, salary, "3000.00", time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), "august salary"),
				newTx(user, food, "42.50", time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC), "groceries"),
				newTx(user, food, "15.00", time.Date(2026, 8, 12, 19, 0, 0, 0, time.UTC), "pizza"),
			} {
				_, err := repo.CreateTransaction(t.Context(), tx)
				require.NoError(t, err)
			}
		}

		t.Run("newest first with pagination", func(t *testing.T) {
			withRepos(t, func(repo *TransactionRepo, user models.User, food models.Category, salary models.Category) {
				seed(t, repo, user, food, salary)

				page, err := repo.ListTransactions(t.Context(), user.ID, models.TransactionFilter{Page: 1, Limit: 2})

				require.NoError(t, err)
				require.Len(t, page.Transactions, 2)
				require.Equal(t, "pizza", page.Transactions[0].Description)
				require.Equal(t, "groceries", page.Transactions[1].Description)
				require.Equal(t, 3, page.Total)
				require.Equal(t, 2, page.TotalPages)
			})
		})

		t.Run("filter by type", func(t *testing.T) {
			withRepos(t, func(repo *TransactionRepo, user models.User, food models.Category, salary models.Category) {
				seed(t, repo, user, food, salary)

				page, err := repo.ListTransactions(t.Context(), user.ID, models.TransactionFilter{Type: models.CategoryTypeIncome})

				require.NoError(t, err)
				require.Len(t, page.Transactions, 1)
				require.Equal(t, "august salary", page.Transactions[0].Description)
			})
		})

		t.Run("filter by category and dates", func(t *testing.T) {
			withRepos(t, func(repo *TransactionRepo, user models.User, food models.Category, salary models.Category) {
				seed(t, repo, user, food, salary)

				page, err := repo.ListTransactions(t.Context(), user.ID, models.TransactionFilter{
					CategoryID: food.ID,
					StartDate:  time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC),
					EndDate:    time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
				})

				require.NoError(t, err)
				require.Len(t, page.Transactions, 1)
				require.Equal(t, "pizza", page.Transactions[0].Description)
			})
		})

		t.Run("search matches description category amount and day", func(t *testing.T) {
			withRepos(t, func(repo *TransactionRepo, user models.User, food models.Category, salary models.Category) {
				seed(t, repo, user, food, salary)

				tests := []struct {
					name   string
					search string
					want   int
				}{
					{name: "description", search: "pizza", want: 1},
					{name: "category name", search: "food", want: 2},
					{name: "exact amount", search: "42.50", want: 1},
					{name: "date", search: "2026-08-01", want: 1},
					{name: "no match", search: "vacation", want: 0},
				}

				for _, tt := range tests {
					t.Run(tt.name, func(t *testing.T) {
						page, err := repo.ListTransactions(t.Context(), user.ID, models.TransactionFilter{Search: tt.search})
						require.NoError(t, err)
						require.Len(t, page.Transactions, tt.want)
					})
				}
			})
		})
	})

	t.Run("UpdateTransaction", func(t *testing.T) {
		withRepos(t, func(repo *TransactionRepo, user models.User, food models.Category, _ models.Category) {
			created, err := repo.CreateTransaction(t.Context(), newTx(user, food, "10.00", time.Now(), "before"))
			require.NoError(t, err)

			created.Description = "after"
			created.Amount = decimal.RequireFromString("11.00")
			updated, err := repo.UpdateTransaction(t.Context(), created)

			require.NoError(t, err)
			require.Equal(t, "after", updated.Description)
			require.True(t, decimal.RequireFromString("11.00").Equal(updated.Amount))
		})
	})

	t.Run("DeleteTransaction", func(t *testing.T) {
		withRepos(t, func(repo *TransactionRepo, user models.User, food models.Category, _ models.Category) {
			created, err := repo.CreateTransaction(t.Context(), newTx(user, food, "10.00", time.Now(), ""))
			require.NoError(t, err)

			require.NoError(t, repo.DeleteTransaction(t.Context(), user.ID, created.ID))

			err = repo.DeleteTransaction(t.Context(), user.ID, created.ID)
			require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
		})
	})

	t.Run("Aggregations", func(t *testing.T) {
		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)

		t.Run("SumAmount by type", func(t *testing.T) {
			withRepos(t, func(repo *TransactionRepo, user models.User, food models.Category, salary models.Category) {
				for _, tx := range []models.Transaction{
					newTx(user, salary, "3000.00", time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), ""),
					newTx(user, food, "42.50", time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC), ""),
					newTx(user, food, "15.00", time.Date(2026, 8, 12, 19, 0, 0, 0, time.UTC), ""),
				} {
					_, err := repo.CreateTransaction(t.Context(), tx)
					require.NoError(t, err)
				}

				income, err := repo.SumAmount(t.Context(), user.ID, models.CategoryTypeIncome, from, to)
				require.NoError(t, err)
				require.True(t, decimal.RequireFromString("3000.00").Equal(income))

				expenses, err := repo.SumAmount(t.Context(), user.ID, models.CategoryTypeExpense, from, to)
				require.NoError(t, err)
				require.True(t, decimal.RequireFromString("57.50").Equal(expenses))
			})
		})

		t.Run("empty period sums to zero", func(t *testing.T) {
			withRepos(t, func(repo *TransactionRepo, user models.User, _ models.Category, _ models.Category) {
				sum, err := repo.SumAmount(t.Context(), user.ID, models.CategoryTypeExpense, from, to)
				require.NoError(t, err)
				require.True(t, sum.IsZero())
			})
		})

		t.Run("ExpensesByCategory", func(t *testing.T) {
			withRepos(t, func(repo *TransactionRepo, user models.User, food models.Category, salary models.Category) {
				for _, tx := range []models.Transaction{
					newTx(user, salary, "3000.00", time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), ""),
					newTx(user, food, "42.50", time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC), ""),
					newTx(user, food, "15.00", time.Date(2026, 8, 12, 19, 0, 0, 0, time.UTC), ""),
				} {
					_, err := repo.CreateTransaction(t.Context(), tx)
					require.NoError(t, err)
				}

				breakdown, err := repo.ExpensesByCategory(t.Context(), user.ID, from, to)

				require.NoError(t, err)
				require.Len(t, breakdown, 1, "income must not leak into the expense breakdown")
				require.True(t, decimal.RequireFromString("57.50").Equal(breakdown["Food"]))
			})
		})

		t.Run("MonthlyTotals ordered by month", func(t *testing.T) {
			withRepos(t, func(repo *TransactionRepo, user models.User, food models.Category, salary models.Category) {
				for _, tx := range []models.Transaction{
					newTx(user, salary, "3000.00", time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC), ""),
					newTx(user, food, "100.00", time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC), ""),
					newTx(user, food, "50.00", time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC), ""),
				} {
					_, err := repo.CreateTransaction(t.Context(), tx)
					require.NoError(t, err)
				}

				trends, err := repo.MonthlyTotals(t.Context(), user.ID,
					time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), to)

				require.NoError(t, err)
				require.Len(t, trends, 2)
				require.Equal(t, "2026-07", trends[0].Month)
				require.True(t, decimal.RequireFromString("3000.00").Equal(trends[0].Income))
				require.True(t, decimal.RequireFromString("100.00").Equal(trends[0].Expenses))
				require.Equal(t, "2026-08", trends[1].Month)
				require.True(t, trends[1].Income.IsZero())
			})
		})

		t.Run("CategoryTotals counts and averages", func(t *testing.T) {
			withRepos(t, func(repo *TransactionRepo, user models.User, food models.Category, salary models.Category) {
				for _, tx := range []models.Transaction{
					newTx(user, salary, "3000.00", time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), ""),
					newTx(user, food, "40.00", time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC), ""),
					newTx(user, food, "20.00", time.Date(2026, 8, 12, 19, 0, 0, 0, time.UTC), ""),
				} {
					_, err := repo.CreateTransaction(t.Context(), tx)
					require.NoError(t, err)
				}

				totals, err := repo.CategoryTotals(t.Context(), user.ID, from, to)

				require.NoError(t, err)
				require.Len(t, totals, 2)
				require.Equal(t, "Food", totals[0].Name, "most used category first")
				require.Equal(t, 2, totals[0].Count)
				require.True(t, decimal.RequireFromString("60.00").Equal(totals[0].Amount))
				require.True(t, decimal.RequireFromString("30.00").Equal(totals[0].Average))
			})
		})
	})
}
