package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/fintrack/internal/apperrors"
	"github.com/nkiryanov/fintrack/internal/models"
)

type TransactionRepo struct {
	DB DBTX
}

const createTransaction = `-- name: Create transaction
INSERT INTO transactions (id, user_id, category_id, amount, description, date, type, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
RETURNING id
`

func (r *TransactionRepo) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createTransaction, t.ID, t.UserID, t.CategoryID, t.Amount, t.Description, t.Date, t.Type, time.Now())
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return t, fmt.Errorf("db error: %w", err)
	}

	return r.GetTransaction(ctx, t.UserID, t.ID)
}

const getTransaction = `-- name: Get transaction with category
SELECT t.id, t.user_id, t.category_id, t.amount, t.description, t.date, t.type, t.created_at, t.updated_at,
       c.id, c.name, c.type, c.created_at
FROM transactions t
JOIN categories c ON c.id = t.category_id
WHERE t.user_id = $1 AND t.id = $2
`

func (r *TransactionRepo) GetTransaction(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getTransaction, userID, id)
	t, err := pgx.CollectOneRow(rows, scanTransaction)

	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, pgx.ErrNoRows):
		return t, fmt.Errorf("repo error: %w", apperrors.ErrTransactionNotFound)
	default:
		return t, fmt.Errorf("db error: %w", err)
	}
}

const updateTransaction = `-- name: Update transaction
UPDATE transactions
SET category_id = $3, amount = $4, description = $5, date = $6, type = $7, updated_at = $8
WHERE user_id = $1 AND id = $2
RETURNING id
`

func (r *TransactionRepo) UpdateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, updateTransaction, t.UserID, t.ID, t.CategoryID, t.Amount, t.Description, t.Date, t.Type, time.Now())
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	switch {
	case err == nil:
		return r.GetTransaction(ctx, t.UserID, t.ID)
	case errors.Is(err, pgx.ErrNoRows):
		return t, fmt.Errorf("repo error: %w", apperrors.ErrTransactionNotFound)
	default:
		return t, fmt.Errorf("db error: %w", err)
	}
}

const deleteTransaction = `-- name: Delete transaction
DELETE FROM transactions
WHERE user_id = $1 AND id = $2
`

func (r *TransactionRepo) DeleteTransaction(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteTransaction, userID, id)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return fmt.Errorf("repo error: %w", apperrors.ErrTransactionNotFound)
	default:
		return nil
	}
}

// Filter conditions shared by the list and count queries
// Search matches description, category name, exact amount or the transaction day
const transactionFilter = `
    t.user_id = $1
    AND ($2 = '' OR t.type = $2)
    AND ($3::uuid IS NULL OR t.category_id = $3)
    AND ($4::timestamptz IS NULL OR t.date >= $4)
    AND ($5::timestamptz IS NULL OR t.date <= $5)
    AND ($6 = ''
        OR t.description ILIKE '%' || $6 || '%'
        OR c.name ILIKE '%' || $6 || '%'
        OR t.amount::text = $6
        OR to_char(t.date, 'YYYY-MM-DD') = $6)
`

const listTransactions = `-- name: List transactions page
SELECT t.id, t.user_id, t.category_id, t.amount, t.description, t.date, t.type, t.created_at, t.updated_at,
       c.id, c.name, c.type, c.created_at
FROM transactions t
JOIN categories c ON c.id = t.category_id
WHERE ` + transactionFilter + `
ORDER BY t.date DESC
LIMIT $7 OFFSET $8
`

const countTransactions = `-- name: Count transactions matching filter
SELECT count(*)
FROM transactions t
JOIN categories c ON c.id = t.category_id
WHERE ` + transactionFilter

func (r *TransactionRepo) ListTransactions(ctx context.Context, userID uuid.UUID, filter models.TransactionFilter) (models.TransactionPage, error) {
	page := models.TransactionPage{
		Page:  max(filter.Page, 1),
		Limit: filter.Limit,
	}
	if page.Limit <= 0 {
		page.Limit = 20
	}

	var categoryID *uuid.UUID
	if filter.CategoryID != uuid.Nil {
		categoryID = &filter.CategoryID
	}
	var startDate, endDate *time.Time
	if !filter.StartDate.IsZero() {
		startDate = &filter.StartDate
	}
	if !filter.EndDate.IsZero() {
		endDate = &filter.EndDate
	}

	offset := (page.Page - 1) * page.Limit
	rows, _ := r.DB.Query(ctx, listTransactions, userID, filter.Type, categoryID, startDate, endDate, filter.Search, page.Limit, offset)
	transactions, err := pgx.CollectRows(rows, scanTransaction)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}

	rows, _ = r.DB.Query(ctx, countTransactions, userID, filter.Type, categoryID, startDate, endDate, filter.Search)
	total, err := pgx.CollectOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}

	page.Transactions = transactions
	page.Total = total
	page.TotalPages = (total + page.Limit - 1) / page.Limit
	return page, nil
}

const sumAmount = `-- name: Sum transaction amounts by type in period
SELECT COALESCE(SUM(amount), 0)
FROM transactions
WHERE user_id = $1 AND type = $2 AND date >= $3 AND date <= $4
`

func (r *TransactionRepo) SumAmount(ctx context.Context, userID uuid.UUID, txType string, from time.Time, to time.Time) (decimal.Decimal, error) {
	rows, _ := r.DB.Query(ctx, sumAmount, userID, txType, from, to)
	sum, err := pgx.CollectOneRow(rows, pgx.RowTo[decimal.Decimal])
	if err != nil {
		return decimal.Zero, fmt.Errorf("db error: %w", err)
	}
	return sum, nil
}

const sumCategoryExpenses = `-- name: Sum expenses for category in period
SELECT COALESCE(SUM(amount), 0)
FROM transactions
WHERE user_id = $1 AND category_id = $2 AND type = 'EXPENSE' AND date >= $3 AND date < $4
`

func (r *TransactionRepo) SumCategoryExpenses(ctx context.Context, userID uuid.UUID, categoryID uuid.UUID, from time.Time, to time.Time) (decimal.Decimal, error) {
	rows, _ := r.DB.Query(ctx, sumCategoryExpenses, userID, categoryID, from, to)
	sum, err := pgx.CollectOneRow(rows, pgx.RowTo[decimal.Decimal])
	if err != nil {
		return decimal.Zero, fmt.Errorf("db error: %w", err)
	}
	return sum, nil
}

const expensesByCategory = `-- name: Expenses grouped by category name
SELECT c.name, COALESCE(SUM(t.amount), 0)
FROM transactions t
JOIN categories c ON c.id = t.category_id
WHERE t.user_id = $1 AND t.type = 'EXPENSE' AND t.date >= $2 AND t.date <= $3
GROUP BY c.name
`

func (r *TransactionRepo) ExpensesByCategory(ctx context.Context, userID uuid.UUID, from time.Time, to time.Time) (map[string]decimal.Decimal, error) {
	rows, _ := r.DB.Query(ctx, expensesByCategory, userID, from, to)

	breakdown := map[string]decimal.Decimal{}
	_, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (struct{}, error) {
		var name string
		var amount decimal.Decimal
		err := row.Scan(&name, &amount)
		if err == nil {
			breakdown[name] = amount
		}
		return struct{}{}, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return breakdown, nil
}

const monthlyTotals = `-- name: Income and expenses per month
SELECT to_char(date_trunc('month', date), 'YYYY-MM') AS month,
       COALESCE(SUM(amount) FILTER (WHERE type = 'INCOME'), 0),
       COALESCE(SUM(amount) FILTER (WHERE type = 'EXPENSE'), 0)
FROM transactions
WHERE user_id = $1 AND date >= $2 AND date <= $3
GROUP BY 1
ORDER BY 1
`

func (r *TransactionRepo) MonthlyTotals(ctx context.Context, userID uuid.UUID, from time.Time, to time.Time) ([]models.MonthlyTrend, error) {
	rows, _ := r.DB.Query(ctx, monthlyTotals, userID, from, to)
	trends, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.MonthlyTrend, error) {
		var t models.MonthlyTrend
		err := row.Scan(&t.Month, &t.Income, &t.Expenses)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return trends, nil
}

const categoryTotals = `-- name: Totals and counts per category
SELECT c.name, COALESCE(SUM(t.amount), 0), count(*)
FROM transactions t
JOIN categories c ON c.id = t.category_id
WHERE t.user_id = $1 AND t.date >= $2 AND t.date <= $3
GROUP BY c.name
ORDER BY count(*) DESC
`

func (r *TransactionRepo) CategoryTotals(ctx context.Context, userID uuid.UUID, from time.Time, to time.Time) ([]models.CategorySpending, error) {
	rows, _ := r.DB.Query(ctx, categoryTotals, userID, from, to)
	totals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CategorySpending, error) {
		var c models.CategorySpending
		err := row.Scan(&c.Name, &c.Amount, &c.Count)
		if err == nil && c.Count > 0 {
			c.Average = c.Amount.Div(decimal.NewFromInt(int64(c.Count))).Round(2)
		}
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return totals, nil
}

func scanTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.UserID, &t.CategoryID, &t.Amount, &t.Description, &t.Date, &t.Type, &t.CreatedAt, &t.UpdatedAt,
		&t.Category.ID, &t.Category.Name, &t.Category.Type, &t.Category.CreatedAt,
	)
	return t, err
}
