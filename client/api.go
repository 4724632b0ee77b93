package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Wire types as the API returns them

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Type string    `json:"type"`
}

type Transaction struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"categoryId"`
	Category    Category  `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type TransactionPage struct {
	Transactions []Transaction
	Pagination   Pagination
}

type MonthlySummary struct {
	Month            int                `json:"month"`
	Year             int                `json:"year"`
	Income           float64            `json:"income"`
	Expenses         float64            `json:"expenses"`
	Savings          float64            `json:"savings"`
	SavingsRate      float64            `json:"savingsRate"`
	ExpenseBreakdown map[string]float64 `json:"expenseBreakdown"`
}

// Me returns the profile of the authenticated user
func (c *Client) Me(ctx context.Context) (User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return User{}, err
	}
	return resp.User, nil
}

// Categories lists available categories, categoryType may be empty
func (c *Client) Categories(ctx context.Context, categoryType string) ([]Category, error) {
	path := "/api/categories"
	if categoryType != "" {
		path += "?type=" + url.QueryEscape(categoryType)
	}

	var resp struct {
		Data []Category `json:"data"`
	}
	if err := c.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Transactions lists a page of transactions, page and limit below 1 use
// the server defaults
func (c *Client) Transactions(ctx context.Context, page int, limit int) (TransactionPage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/transactions"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp struct {
		Data       []Transaction `json:"data"`
		Pagination Pagination    `json:"pagination"`
	}
	if err := c.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return TransactionPage{}, err
	}
	return TransactionPage{Transactions: resp.Data, Pagination: resp.Pagination}, nil
}

// CreateTransaction records an income or expense transaction
func (c *Client) CreateTransaction(ctx context.Context, categoryID uuid.UUID, amount float64, description string, date time.Time, txType string) (Transaction, error) {
	payload := map[string]any{
		"categoryId":  categoryID,
		"amount":      amount,
		"description": description,
		"date":        date,
		"type":        txType,
	}

	var resp struct {
		Data Transaction `json:"data"`
	}
	if err := c.Do(ctx, http.MethodPost, "/api/transactions", payload, &resp); err != nil {
		return Transaction{}, err
	}
	return resp.Data, nil
}

// DeleteTransaction removes a transaction by id
func (c *Client) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/transactions/%s", id), nil, nil)
}

// CurrentMonthlySummary returns the analytics summary for the current month
func (c *Client) CurrentMonthlySummary(ctx context.Context) (MonthlySummary, error) {
	var resp struct {
		Data MonthlySummary `json:"data"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/analytics/monthly-summary", nil, &resp); err != nil {
		return MonthlySummary{}, err
	}
	return resp.Data, nil
}
