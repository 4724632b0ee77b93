package models

import (
	"github.com/shopspring/decimal"
)

// Spending aggregated for one category
type CategorySummary struct {
	Name       string
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

// Income and expenses for one calendar month, key formatted as "2006-01"
type MonthlyTrend struct {
	Month    string
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

// Per-category totals with transaction counts
type CategorySpending struct {
	Name    string
	Amount  decimal.Decimal
	Count   int
	Average decimal.Decimal
}

type MonthlySummary struct {
	Month            int
	Year             int
	Income           decimal.Decimal
	Expenses         decimal.Decimal
	Savings          decimal.Decimal
	SavingsRate      decimal.Decimal
	ExpenseBreakdown map[string]decimal.Decimal
	TopCategories    []CategorySummary
}
