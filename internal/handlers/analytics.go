package handlers

import (
	"net/http"

	"github.com/nkiryanov/fintrack/internal/handlers/render"
	"github.com/nkiryanov/fintrack/internal/logger"
	"github.com/nkiryanov/fintrack/internal/models"
)

type categorySummaryResponse struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type monthlySummaryResponse struct {
	Month            int                       `json:"month"`
	Year             int                       `json:"year"`
	Income           float64                   `json:"income"`
	Expenses         float64                   `json:"expenses"`
	Savings          float64                   `json:"savings"`
	SavingsRate      float64                   `json:"savingsRate"`
	ExpenseBreakdown map[string]float64        `json:"expenseBreakdown"`
	TopCategories    []categorySummaryResponse `json:"topCategories"`
}

func newMonthlySummaryResponse(s models.MonthlySummary) monthlySummaryResponse {
	income, _ := s.Income.Float64()
	expenses, _ := s.Expenses.Float64()
	savings, _ := s.Savings.Float64()
	rate, _ := s.SavingsRate.Float64()

	breakdown := make(map[string]float64, len(s.ExpenseBreakdown))
	for name, amount := range s.ExpenseBreakdown {
		breakdown[name], _ = amount.Float64()
	}

	top := make([]categorySummaryResponse, 0, len(s.TopCategories))
	for _, c := range s.TopCategories {
		amount, _ := c.Amount.Float64()
		percentage, _ := c.Percentage.Float64()
		top = append(top, categorySummaryResponse{Name: c.Name, Amount: amount, Percentage: percentage})
	}

	return monthlySummaryResponse{
		Month:            s.Month,
		Year:             s.Year,
		Income:           income,
		Expenses:         expenses,
		Savings:          savings,
		SavingsRate:      rate,
		ExpenseBreakdown: breakdown,
		TopCategories:    top,
	}
}

func handleMonthlySummary(analyticsService analyticsService, l logger.Logger) http.Handler {
	type response struct {
		Success bool                   `json:"success"`
		Data    monthlySummaryResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(w, r)
		if !ok {
			return
		}

		month := queryInt(r, "month", 0)
		year := queryInt(r, "year", 0)
		if month < 0 || month > 12 {
			render.Error(w, "Invalid month", http.StatusBadRequest)
			return
		}

		summary, err := analyticsService.MonthlySummary(r.Context(), user.ID, month, year)
		if err != nil {
			l.Error("Failed to build monthly summary", "error", err)
			render.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Success: true, Data: newMonthlySummaryResponse(summary)})
	})
}

func handleSpendingTrends(analyticsService analyticsService, l logger.Logger) http.Handler {
	type trendResponse struct {
		Month    string  `json:"month"`
		Income   float64 `json:"income"`
		Expenses float64 `json:"expenses"`
	}
	type response struct {
		Success bool            `json:"success"`
		Data    []trendResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(w, r)
		if !ok {
			return
		}

		trends, err := analyticsService.SpendingTrends(r.Context(), user.ID, queryInt(r, "months", 6))
		if err != nil {
			l.Error("Failed to build spending trends", "error", err)
			render.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data := make([]trendResponse, 0, len(trends))
		for _, t := range trends {
			income, _ := t.Income.Float64()
			expenses, _ := t.Expenses.Float64()
			data = append(data, trendResponse{Month: t.Month, Income: income, Expenses: expenses})
		}
		render.JSON(w, response{Success: true, Data: data})
	})
}

func handleCategorySpending(analyticsService analyticsService, l logger.Logger) http.Handler {
	type spendingResponse struct {
		Name    string  `json:"name"`
		Amount  float64 `json:"amount"`
		Count   int     `json:"count"`
		Average float64 `json:"average"`
	}
	type response struct {
		Success bool               `json:"success"`
		Data    []spendingResponse `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(w, r)
		if !ok {
			return
		}

		spending, err := analyticsService.CategorySpending(r.Context(), user.ID, queryDate(r, "startDate"), queryDate(r, "endDate"))
		if err != nil {
			l.Error("Failed to build category spending", "error", err)
			render.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data := make([]spendingResponse, 0, len(spending))
		for _, s := range spending {
			amount, _ := s.Amount.Float64()
			average, _ := s.Average.Float64()
			data = append(data, spendingResponse{Name: s.Name, Amount: amount, Count: s.Count, Average: average})
		}
		render.JSON(w, response{Success: true, Data: data})
	})
}
