package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CategoryID  uuid.UUID
	Category    Category
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	Type        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TransactionFilter narrows ListTransactions results
// Zero values mean "no constraint"
type TransactionFilter struct {
	Type       string
	CategoryID uuid.UUID
	StartDate  time.Time
	EndDate    time.Time
	Search     string

	Page  int
	Limit int
}

type TransactionPage struct {
	Transactions []Transaction
	Page         int
	Limit        int
	Total        int
	TotalPages   int
}
