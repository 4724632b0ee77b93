package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Budget struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CategoryID uuid.UUID
	Category   Category
	Amount     decimal.Decimal
	Month      int
	Year       int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Budget with spending calculated over the budget period
type BudgetReport struct {
	Budget
	Spent     decimal.Decimal
	Remaining decimal.Decimal
}
