package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/fintrack/internal/models"
	"github.com/nkiryanov/fintrack/internal/repository"
)

const topCategoriesLimit = 5

var hundred = decimal.NewFromInt(100)

type AnalyticsService struct {
	txRepo repository.TransactionRepo
}

func NewService(txRepo repository.TransactionRepo) *AnalyticsService {
	return &AnalyticsService{txRepo: txRepo}
}

// MonthlySummary aggregates income, expenses, savings and the expense
// breakdown for one calendar month. Month or year zero means "current".
func (s *AnalyticsService) MonthlySummary(ctx context.Context, userID uuid.UUID, month int, year int) (models.MonthlySummary, error) {
	now := time.Now()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 1, 0).Add(-time.Second)

	summary := models.MonthlySummary{Month: month, Year: year}

	income, err := s.txRepo.SumAmount(ctx, userID, models.CategoryTypeIncome, from, to)
	if err != nil {
		return summary, err
	}
	expenses, err := s.txRepo.SumAmount(ctx, userID, models.CategoryTypeExpense, from, to)
	if err != nil {
		return summary, err
	}
	breakdown, err := s.txRepo.ExpensesByCategory(ctx, userID, from, to)
	if err != nil {
		return summary, err
	}

	savings := income.Sub(expenses)
	savingsRate := decimal.Zero
	if income.IsPositive() {
		savingsRate = savings.Div(income).Mul(hundred).Round(2)
	}

	summary.Income = income
	summary.Expenses = expenses
	summary.Savings = savings
	summary.SavingsRate = savingsRate
	summary.ExpenseBreakdown = breakdown
	summary.TopCategories = topCategories(breakdown, expenses)
	return summary, nil
}

// SpendingTrends returns income and expenses per month for the last N months
func (s *AnalyticsService) SpendingTrends(ctx context.Context, userID uuid.UUID, months int) ([]models.MonthlyTrend, error) {
	if months <= 0 {
		months = 6
	}

	to := time.Now()
	from := to.AddDate(0, -months, 0)

	return s.txRepo.MonthlyTotals(ctx, userID, from, to)
}

// CategorySpending returns the most used categories with totals and averages
// Zero dates mean "all time"
func (s *AnalyticsService) CategorySpending(ctx context.Context, userID uuid.UUID, from time.Time, to time.Time) ([]models.CategorySpending, error) {
	if from.IsZero() {
		from = time.Unix(0, 0)
	}
	if to.IsZero() {
		to = time.Now()
	}

	totals, err := s.txRepo.CategoryTotals(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	if len(totals) > topCategoriesLimit {
		totals = totals[:topCategoriesLimit]
	}
	return totals, nil
}

func topCategories(breakdown map[string]decimal.Decimal, expenses decimal.Decimal) []models.CategorySummary {
	top := make([]models.CategorySummary, 0, len(breakdown))
	for name, amount := range breakdown {
		percentage := decimal.Zero
		if expenses.IsPositive() {
			percentage = amount.Div(expenses).Mul(hundred).Round(2)
		}
		top = append(top, models.CategorySummary{Name: name, Amount: amount, Percentage: percentage})
	}

	sort.Slice(top, func(i, j int) bool { return top[i].Amount.GreaterThan(top[j].Amount) })

	if len(top) > topCategoriesLimit {
		top = top[:topCategoriesLimit]
	}
	return top
}
