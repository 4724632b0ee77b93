package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/fintrack/internal/apperrors"
	"github.com/nkiryanov/fintrack/internal/models"
	"github.com/nkiryanov/fintrack/internal/repository"
)

type TransactionService struct {
	txRepo       repository.TransactionRepo
	categoryRepo repository.CategoryRepo
}

func NewService(txRepo repository.TransactionRepo, categoryRepo repository.CategoryRepo) *TransactionService {
	return &TransactionService{
		txRepo:       txRepo,
		categoryRepo: categoryRepo,
	}
}

// Create transaction after checking the category exists and its type matches
func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, categoryID uuid.UUID, amount decimal.Decimal, description string, date time.Time, txType string) (models.Transaction, error) {
	category, err := s.categoryRepo.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return models.Transaction{}, err
	}

	if category.Type != txType {
		return models.Transaction{}, fmt.Errorf("create error: %w", apperrors.ErrCategoryTypeMismatch)
	}

	if date.IsZero() {
		date = time.Now()
	}

	return s.txRepo.CreateTransaction(ctx, models.Transaction{
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      amount,
		Description: description,
		Date:        date,
		Type:        txType,
	})
}

func (s *TransactionService) Get(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Transaction, error) {
	return s.txRepo.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, filter models.TransactionFilter) (models.TransactionPage, error) {
	return s.txRepo.ListTransactions(ctx, userID, filter)
}

// Fields left nil (or zero date) keep their current value
type UpdateParams struct {
	CategoryID  *uuid.UUID
	Amount      *decimal.Decimal
	Description *string
	Date        time.Time
	Type        *string
}

func (s *TransactionService) Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, params UpdateParams) (models.Transaction, error) {
	t, err := s.txRepo.GetTransaction(ctx, userID, id)
	if err != nil {
		return t, err
	}

	if params.CategoryID != nil {
		if _, err := s.categoryRepo.GetCategoryByID(ctx, *params.CategoryID); err != nil {
			return t, err
		}
		t.CategoryID = *params.CategoryID
	}
	if params.Amount != nil {
		t.Amount = *params.Amount
	}
	if params.Description != nil {
		t.Description = *params.Description
	}
	if !params.Date.IsZero() {
		t.Date = params.Date
	}
	if params.Type != nil {
		t.Type = *params.Type
	}

	// The pair may have drifted apart after a partial update
	category, err := s.categoryRepo.GetCategoryByID(ctx, t.CategoryID)
	if err != nil {
		return t, err
	}
	if category.Type != t.Type {
		return t, fmt.Errorf("update error: %w", apperrors.ErrCategoryTypeMismatch)
	}

	return s.txRepo.UpdateTransaction(ctx, t)
}

func (s *TransactionService) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	return s.txRepo.DeleteTransaction(ctx, userID, id)
}

func (s *TransactionService) Categories(ctx context.Context, categoryType string) ([]models.Category, error) {
	return s.categoryRepo.ListCategories(ctx, categoryType)
}
