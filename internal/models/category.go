package models

import (
	"time"

	"github.com/google/uuid"
)

// Category types
// Transactions and budgets reference categories of matching type
const (
	CategoryTypeIncome  = "INCOME"
	CategoryTypeExpense = "EXPENSE"
)

type Category struct {
	ID        uuid.UUID
	Name      string
	Type      string
	CreatedAt time.Time
}
