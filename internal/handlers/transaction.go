package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/fintrack/internal/apperrors"
	"github.com/nkiryanov/fintrack/internal/handlers/render"
	"github.com/nkiryanov/fintrack/internal/logger"
	"github.com/nkiryanov/fintrack/internal/models"
	"github.com/nkiryanov/fintrack/internal/service/transaction"
)

type categoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Type string    `json:"type"`
}

type transactionResponse struct {
	ID          uuid.UUID        `json:"id"`
	CategoryID  uuid.UUID        `json:"categoryId"`
	Category    categoryResponse `json:"category"`
	Amount      float64          `json:"amount"`
	Description string           `json:"description"`
	Date        time.Time        `json:"date"`
	Type        string           `json:"type"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func newCategoryResponse(c models.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Type: c.Type}
}

func newTransactionResponse(t models.Transaction) transactionResponse {
	amount, _ := t.Amount.Float64()
	return transactionResponse{
		ID:          t.ID,
		CategoryID:  t.CategoryID,
		Category:    newCategoryResponse(t.Category),
		Amount:      amount,
		Description: t.Description,
		Date:        t.Date,
		Type:        t.Type,
		CreatedAt:   t.CreatedAt,
	}
}

func renderTransactionError(w http.ResponseWriter, l logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		render.Error(w, "Transaction not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrCategoryNotFound):
		render.Error(w, "Category not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrCategoryTypeMismatch):
		render.Error(w, "Category type does not match transaction type", http.StatusBadRequest)
	default:
		l.Error("Transaction request failed", "error", err)
		render.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func handleListTransactions(txService transactionService, l logger.Logger) http.Handler {
	type pagination struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		Total      int `json:"total"`
		TotalPages int `json:"totalPages"`
	}
	type response struct {
		Success    bool                  `json:"success"`
		Data       []transactionResponse `json:"data"`
		Pagination pagination            `json:"pagination"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(w, r)
		if !ok {
			return
		}

		filter := models.TransactionFilter{
			Type:      r.URL.Query().Get("type"),
			Search:    r.URL.Query().Get("search"),
			StartDate: queryDate(r, "startDate"),
			EndDate:   queryDate(r, "endDate"),
			Page:      queryInt(r, "page", 1),
			Limit:     queryInt(r, "limit", 20),
		}
		if categoryID, err := uuid.Parse(r.URL.Query().Get("categoryId")); err == nil {
			filter.CategoryID = categoryID
		}

		page, err := txService.List(r.Context(), user.ID, filter)
		if err != nil {
			renderTransactionError(w, l, err)
			return
		}

		data := make([]transactionResponse, 0, len(page.Transactions))
		for _, t := range page.Transactions {
			data = append(data, newTransactionResponse(t))
		}

		render.JSON(w, response{
			Success: true,
			Data:    data,
			Pagination: pagination{
				Page:       page.Page,
				Limit:      page.Limit,
				Total:      page.Total,
				TotalPages: page.TotalPages,
			},
		})
	})
}

func handleGetTransaction(txService transactionService, l logger.Logger) http.Handler {
	type response struct {
		Success bool                `json:"success"`
		Data    transactionResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		t, err := txService.Get(r.Context(), user.ID, id)
		if err != nil {
			renderTransactionError(w, l, err)
			return
		}

		render.JSON(w, response{Success: true, Data: newTransactionResponse(t)})
	})
}

func handleCreateTransaction(txService transactionService, l logger.Logger) http.Handler {
	type request struct {
		CategoryID  uuid.UUID       `json:"categoryId" validate:"required"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description" validate:"max=500"`
		Date        time.Time       `json:"date"`
		Type        string          `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	}
	type response struct {
		Success bool                `json:"success"`
		Data    transactionResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}
		if !data.Amount.IsPositive() {
			render.Error(w, "Amount must be positive", http.StatusBadRequest)
			return
		}

		t, err := txService.Create(r.Context(), user.ID, data.CategoryID, data.Amount, data.Description, data.Date, data.Type)
		if err != nil {
			renderTransactionError(w, l, err)
			return
		}

		render.JSONWithStatus(w, response{Success: true, Data: newTransactionResponse(t)}, http.StatusCreated)
	})
}

func handleUpdateTransaction(txService transactionService, l logger.Logger) http.Handler {
	type request struct {
		CategoryID  *uuid.UUID       `json:"categoryId"`
		Amount      *decimal.Decimal `json:"amount"`
		Description *string          `json:"description" validate:"omitempty,max=500"`
		Date        time.Time        `json:"date"`
		Type        *string          `json:"type" validate:"omitempty,oneof=INCOME EXPENSE"`
	}
	type response struct {
		Success bool                `json:"success"`
		Data    transactionResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}
		if data.Amount != nil && !data.Amount.IsPositive() {
			render.Error(w, "Amount must be positive", http.StatusBadRequest)
			return
		}

		t, err := txService.Update(r.Context(), user.ID, id, transaction.UpdateParams{
			CategoryID:  data.CategoryID,
			Amount:      data.Amount,
			Description: data.Description,
			Date:        data.Date,
			Type:        data.Type,
		})
		if err != nil {
			renderTransactionError(w, l, err)
			return
		}

		render.JSON(w, response{Success: true, Data: newTransactionResponse(t)})
	})
}

func handleDeleteTransaction(txService transactionService, l logger.Logger) http.Handler {
	type response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := txService.Delete(r.Context(), user.ID, id); err != nil {
			renderTransactionError(w, l, err)
			return
		}

		render.JSON(w, response{Success: true, Message: "Transaction deleted successfully"})
	})
}

func handleListCategories(txService transactionService, l logger.Logger) http.Handler {
	type response struct {
		Success bool               `json:"success"`
		Data    []categoryResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		categoryType := r.URL.Query().Get("type")
		if categoryType != "" && categoryType != models.CategoryTypeIncome && categoryType != models.CategoryTypeExpense {
			categoryType = ""
		}

		categories, err := txService.Categories(r.Context(), categoryType)
		if err != nil {
			l.Error("Failed to list categories", "error", err)
			render.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data := make([]categoryResponse, 0, len(categories))
		for _, c := range categories {
			data = append(data, newCategoryResponse(c))
		}
		render.JSON(w, response{Success: true, Data: data})
	})
}
