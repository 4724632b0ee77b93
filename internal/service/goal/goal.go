package goal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/fintrack/internal/models"
	"github.com/nkiryanov/fintrack/internal/repository"
)

type GoalService struct {
	goalRepo repository.GoalRepo
}

func NewService(goalRepo repository.GoalRepo) *GoalService {
	return &GoalService{goalRepo: goalRepo}
}

func (s *GoalService) Create(ctx context.Context, userID uuid.UUID, title string, description string, targetAmount decimal.Decimal, targetDate *time.Time) (models.Goal, error) {
	return s.goalRepo.CreateGoal(ctx, models.Goal{
		UserID:        userID,
		Title:         title,
		Description:   description,
		TargetAmount:  targetAmount,
		CurrentAmount: decimal.Zero,
		TargetDate:    targetDate,
		Status:        models.GoalStatusInProgress,
	})
}

func (s *GoalService) Get(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Goal, error) {
	return s.goalRepo.GetGoal(ctx, userID, id)
}

func (s *GoalService) List(ctx context.Context, userID uuid.UUID, status string) ([]models.Goal, error) {
	return s.goalRepo.ListGoals(ctx, userID, status)
}

// Fields left nil keep their current value
type UpdateParams struct {
	Title         *string
	Description   *string
	TargetAmount  *decimal.Decimal
	CurrentAmount *decimal.Decimal
	TargetDate    *time.Time
	Status        *string
}

func (s *GoalService) Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, params UpdateParams) (models.Goal, error) {
	g, err := s.goalRepo.GetGoal(ctx, userID, id)
	if err != nil {
		return g, err
	}

	if params.Title != nil {
		g.Title = *params.Title
	}
	if params.Description != nil {
		g.Description = *params.Description
	}
	if params.TargetAmount != nil {
		g.TargetAmount = *params.TargetAmount
	}
	if params.CurrentAmount != nil {
		g.CurrentAmount = *params.CurrentAmount
	}
	if params.TargetDate != nil {
		g.TargetDate = params.TargetDate
	}
	if params.Status != nil {
		g.Status = *params.Status
	}

	return s.goalRepo.UpdateGoal(ctx, g)
}

// AddMoney tops up the goal and completes it when the target is reached
func (s *GoalService) AddMoney(ctx context.Context, userID uuid.UUID, id uuid.UUID, amount decimal.Decimal) (models.Goal, error) {
	g, err := s.goalRepo.GetGoal(ctx, userID, id)
	if err != nil {
		return g, err
	}

	g.CurrentAmount = g.CurrentAmount.Add(amount)
	if g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.Status = models.GoalStatusCompleted
	}

	return s.goalRepo.UpdateGoal(ctx, g)
}

func (s *GoalService) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	return s.goalRepo.DeleteGoal(ctx, userID, id)
}
