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
	"github.com/nkiryanov/fintrack/internal/service/budget"
)

type budgetResponse struct {
	ID         uuid.UUID        `json:"id"`
	CategoryID uuid.UUID        `json:"categoryId"`
	Category   categoryResponse `json:"category"`
	Amount     float64          `json:"amount"`
	Month      int              `json:"month"`
	Year       int              `json:"year"`
	CreatedAt  time.Time        `json:"createdAt"`
}

type budgetReportResponse struct {
	budgetResponse
	Spent     float64 `json:"spent"`
	Remaining float64 `json:"remaining"`
}

func newBudgetResponse(b models.Budget) budgetResponse {
	amount, _ := b.Amount.Float64()
	return budgetResponse{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Category:   newCategoryResponse(b.Category),
		Amount:     amount,
		Month:      b.Month,
		Year:       b.Year,
		CreatedAt:  b.CreatedAt,
	}
}

func newBudgetReportResponse(r models.BudgetReport) budgetReportResponse {
	spent, _ := r.Spent.Float64()
	remaining, _ := r.Remaining.Float64()
	return budgetReportResponse{
		budgetResponse: newBudgetResponse(r.Budget),
		Spent:          spent,
		Remaining:      remaining,
	}
}

func renderBudgetError(w http.ResponseWriter, l logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrBudgetNotFound):
		render.Error(w, "Budget not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrBudgetAlreadyExists):
		render.Error(w, "Budget for this category and month already exists", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrCategoryNotFound):
		render.Error(w, "Category not found", http.StatusNotFound)
	default:
		l.Error("Budget request failed", "error", err)
		render.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func handleListBudgets(budgetService budgetService, l logger.Logger) http.Handler {
	type response struct {
		Success bool                   `json:"success"`
		Data    []budgetReportResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(w, r)
		if !ok {
			return
		}

		month := queryInt(r, "month", 0)
		year := queryInt(r, "year", 0)

		reports, err := budgetService.List(r.Context(), user.ID, month, year)
		if err != nil {
			renderBudgetError(w, l, err)
			return
		}

		data := make([]budgetReportResponse, 0, len(reports))
		for _, report := range reports {
			data = append(data, newBudgetReportResponse(report))
		}
		render.JSON(w, response{Success: true, Data: data})
	})
}

func handleGetBudget(budgetService budgetService, l logger.Logger) http.Handler {
	type response struct {
		Success bool           `json:"success"`
		Data    budgetResponse `json:"data"`
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

		b, err := budgetService.Get(r.Context(), user.ID, id)
		if err != nil {
			renderBudgetError(w, l, err)
			return
		}

		render.JSON(w, response{Success: true, Data: newBudgetResponse(b)})
	})
}

func handleCreateBudget(budgetService budgetService, l logger.Logger) http.Handler {
	type request struct {
		CategoryID uuid.UUID       `json:"categoryId" validate:"required"`
		Amount     decimal.Decimal `json:"amount"`
		Month      int             `json:"month" validate:"required,min=1,max=12"`
		Year       int             `json:"year" validate:"required,min=2000,max=2100"`
	}
	type response struct {
		Success bool           `json:"success"`
		Data    budgetResponse `json:"data"`
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

		b, err := budgetService.Create(r.Context(), user.ID, data.CategoryID, data.Amount, data.Month, data.Year)
		if err != nil {
			renderBudgetError(w, l, err)
			return
		}

		render.JSONWithStatus(w, response{Success: true, Data: newBudgetResponse(b)}, http.StatusCreated)
	})
}

func handleUpdateBudget(budgetService budgetService, l logger.Logger) http.Handler {
	type request struct {
		CategoryID *uuid.UUID       `json:"categoryId"`
		Amount     *decimal.Decimal `json:"amount"`
		Month      *int             `json:"month" validate:"omitempty,min=1,max=12"`
		Year       *int             `json:"year" validate:"omitempty,min=2000,max=2100"`
	}
	type response struct {
		Success bool           `json:"success"`
		Data    budgetResponse `json:"data"`
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

		b, err := budgetService.Update(r.Context(), user.ID, id, budget.UpdateParams{
			CategoryID: data.CategoryID,
			Amount:     data.Amount,
			Month:      data.Month,
			Year:       data.Year,
		})
		if err != nil {
			renderBudgetError(w, l, err)
			return
		}

		render.JSON(w, response{Success: true, Data: newBudgetResponse(b)})
	})
}

func handleDeleteBudget(budgetService budgetService, l logger.Logger) http.Handler {
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

		if err := budgetService.Delete(r.Context(), user.ID, id); err != nil {
			renderBudgetError(w, l, err)
			return
		}

		render.JSON(w, response{Success: true, Message: "Budget deleted successfully"})
	})
}
