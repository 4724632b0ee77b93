package budget

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/fintrack/internal/models"
	"github.com/nkiryanov/fintrack/internal/repository"
)

type BudgetService struct {
	budgetRepo   repository.BudgetRepo
	txRepo       repository.TransactionRepo
	categoryRepo repository.CategoryRepo
}

func NewService(budgetRepo repository.BudgetRepo, txRepo repository.TransactionRepo, categoryRepo repository.CategoryRepo) *BudgetService {
	return &BudgetService{
		budgetRepo:   budgetRepo,
		txRepo:       txRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *BudgetService) Create(ctx context.Context, userID uuid.UUID, categoryID uuid.UUID, amount decimal.Decimal, month int, year int) (models.Budget, error) {
	if _, err := s.categoryRepo.GetCategoryByID(ctx, categoryID); err != nil {
		return models.Budget{}, err
	}

	return s.budgetRepo.CreateBudget(ctx, models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Month:      month,
		Year:       year,
	})
}

func (s *BudgetService) Get(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Budget, error) {
	return s.budgetRepo.GetBudget(ctx, userID, id)
}

// List budgets with spending calculated for each budget period
func (s *BudgetService) List(ctx context.Context, userID uuid.UUID, month int, year int) ([]models.BudgetReport, error) {
	budgets, err := s.budgetRepo.ListBudgets(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	reports := make([]models.BudgetReport, 0, len(budgets))
	for _, b := range budgets {
		from := time.Date(b.Year, time.Month(b.Month), 1, 0, 0, 0, 0, time.Local)
		to := from.AddDate(0, 1, 0)

		spent, err := s.txRepo.SumCategoryExpenses(ctx, userID, b.CategoryID, from, to)
		if err != nil {
			return nil, err
		}

		reports = append(reports, models.BudgetReport{
			Budget:    b,
			Spent:     spent,
			Remaining: b.Amount.Sub(spent),
		})
	}

	return reports, nil
}

// Fields left nil keep their current value
type UpdateParams struct {
	CategoryID *uuid.UUID
	Amount     *decimal.Decimal
	Month      *int
	Year       *int
}

func (s *BudgetService) Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, params UpdateParams) (models.Budget, error) {
	b, err := s.budgetRepo.GetBudget(ctx, userID, id)
	if err != nil {
		return b, err
	}

	if params.CategoryID != nil {
		if _, err := s.categoryRepo.GetCategoryByID(ctx, *params.CategoryID); err != nil {
			return b, err
		}
		b.CategoryID = *params.CategoryID
	}
	if params.Amount != nil {
		b.Amount = *params.Amount
	}
	if params.Month != nil {
		b.Month = *params.Month
	}
	if params.Year != nil {
		b.Year = *params.Year
	}

	return s.budgetRepo.UpdateBudget(ctx, b)
}

func (s *BudgetService) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	return s.budgetRepo.DeleteBudget(ctx, userID, id)
}
