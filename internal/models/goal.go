package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Goal statuses
const (
	GoalStatusInProgress = "IN_PROGRESS"
	GoalStatusCompleted  = "COMPLETED"
	GoalStatusCancelled  = "CANCELLED"
)

type Goal struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Title         string
	Description   string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    *time.Time // nil if goal has no deadline
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
