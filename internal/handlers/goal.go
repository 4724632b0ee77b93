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
	"github.com/nkiryanov/fintrack/internal/service/goal"
)

type goalResponse struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	TargetAmount  float64    `json:"targetAmount"`
	CurrentAmount float64    `json:"currentAmount"`
	TargetDate    *time.Time `json:"targetDate"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func newGoalResponse(g models.Goal) goalResponse {
	target, _ := g.TargetAmount.Float64()
	current, _ := g.CurrentAmount.Float64()
	return goalResponse{
		ID:            g.ID,
		Title:         g.Title,
		Description:   g.Description,
		TargetAmount:  target,
		CurrentAmount: current,
		TargetDate:    g.TargetDate,
		Status:        g.Status,
		CreatedAt:     g.CreatedAt,
	}
}

func renderGoalError(w http.ResponseWriter, l logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrGoalNotFound):
		render.Error(w, "Goal not found", http.StatusNotFound)
	default:
		l.Error("Goal request failed", "error", err)
		render.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func handleListGoals(goalService goalService, l logger.Logger) http.Handler {
	type response struct {
		Success bool           `json:"success"`
		Data    []goalResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(w, r)
		if !ok {
			return
		}

		status := r.URL.Query().Get("status")
		switch status {
		case models.GoalStatusInProgress, models.GoalStatusCompleted, models.GoalStatusCancelled:
		default:
			status = ""
		}

		goals, err := goalService.List(r.Context(), user.ID, status)
		if err != nil {
			renderGoalError(w, l, err)
			return
		}

		data := make([]goalResponse, 0, len(goals))
		for _, g := range goals {
			data = append(data, newGoalResponse(g))
		}
		render.JSON(w, response{Success: true, Data: data})
	})
}

func handleGetGoal(goalService goalService, l logger.Logger) http.Handler {
	type response struct {
		Success bool         `json:"success"`
		Data    goalResponse `json:"data"`
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

		g, err := goalService.Get(r.Context(), user.ID, id)
		if err != nil {
			renderGoalError(w, l, err)
			return
		}

		render.JSON(w, response{Success: true, Data: newGoalResponse(g)})
	})
}

func handleCreateGoal(goalService goalService, l logger.Logger) http.Handler {
	type request struct {
		Title        string          `json:"title" validate:"required,max=200"`
		Description  string          `json:"description" validate:"max=1000"`
		TargetAmount decimal.Decimal `json:"targetAmount"`
		TargetDate   *time.Time      `json:"targetDate"`
	}
	type response struct {
		Success bool         `json:"success"`
		Data    goalResponse `json:"data"`
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
		if !data.TargetAmount.IsPositive() {
			render.Error(w, "Target amount must be positive", http.StatusBadRequest)
			return
		}

		g, err := goalService.Create(r.Context(), user.ID, data.Title, data.Description, data.TargetAmount, data.TargetDate)
		if err != nil {
			renderGoalError(w, l, err)
			return
		}

		render.JSONWithStatus(w, response{Success: true, Data: newGoalResponse(g)}, http.StatusCreated)
	})
}

func handleUpdateGoal(goalService goalService, l logger.Logger) http.Handler {
	type request struct {
		Title         *string          `json:"title" validate:"omitempty,max=200"`
		Description   *string          `json:"description" validate:"omitempty,max=1000"`
		TargetAmount  *decimal.Decimal `json:"targetAmount"`
		CurrentAmount *decimal.Decimal `json:"currentAmount"`
		TargetDate    *time.Time       `json:"targetDate"`
		Status        *string          `json:"status" validate:"omitempty,oneof=IN_PROGRESS COMPLETED CANCELLED"`
	}
	type response struct {
		Success bool         `json:"success"`
		Data    goalResponse `json:"data"`
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
		if data.TargetAmount != nil && !data.TargetAmount.IsPositive() {
			render.Error(w, "Target amount must be positive", http.StatusBadRequest)
			return
		}

		g, err := goalService.Update(r.Context(), user.ID, id, goal.UpdateParams{
			Title:         data.Title,
			Description:   data.Description,
			TargetAmount:  data.TargetAmount,
			CurrentAmount: data.CurrentAmount,
			TargetDate:    data.TargetDate,
			Status:        data.Status,
		})
		if err != nil {
			renderGoalError(w, l, err)
			return
		}

		render.JSON(w, response{Success: true, Data: newGoalResponse(g)})
	})
}

func handleGoalAddMoney(goalService goalService, l logger.Logger) http.Handler {
	type request struct {
		Amount decimal.Decimal `json:"amount"`
	}
	type response struct {
		Success bool         `json:"success"`
		Data    goalResponse `json:"data"`
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
		if !data.Amount.IsPositive() {
			render.Error(w, "Amount must be positive", http.StatusBadRequest)
			return
		}

		g, err := goalService.AddMoney(r.Context(), user.ID, id, data.Amount)
		if err != nil {
			renderGoalError(w, l, err)
			return
		}

		render.JSON(w, response{Success: true, Data: newGoalResponse(g)})
	})
}

func handleDeleteGoal(goalService goalService, l logger.Logger) http.Handler {
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

		if err := goalService.Delete(r.Context(), user.ID, id); err != nil {
			renderGoalError(w, l, err)
			return
		}

		render.JSON(w, response{Success: true, Message: "Goal deleted successfully"})
	})
}
