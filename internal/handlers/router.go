package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/fintrack/internal/handlers/middleware"
	"github.com/nkiryanov/fintrack/internal/logger"
	"github.com/nkiryanov/fintrack/internal/models"
	"github.com/nkiryanov/fintrack/internal/service/budget"
	"github.com/nkiryanov/fintrack/internal/service/goal"
	"github.com/nkiryanov/fintrack/internal/service/transaction"
)

const (
	refreshRateLimit  = 5
	refreshRateWindow = 15 * time.Minute
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	CORSOrigins []string
}

func NewRouter(
	cfg RouterConfig,
	authService authService,
	txService transactionService,
	budgetService budgetService,
	goalService goalService,
	analyticsService analyticsService,
	profileService profileService,
	l logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	refreshLimiter := middleware.NewRateLimiter(refreshRateLimit, refreshRateWindow)

	api := http.NewServeMux()

	api.Handle("POST /auth/register", handleRegister(authService, l))
	api.Handle("POST /auth/login", handleLogin(authService, l))
	api.Handle("POST /auth/refresh", refreshLimiter.Handler(handleTokenRefresh(authService, l)))
	api.Handle("GET /auth/me", withAuth(handleMe()))

	api.Handle("GET /transactions", withAuth(handleListTransactions(txService, l)))
	api.Handle("POST /transactions", withAuth(handleCreateTransaction(txService, l)))
	api.Handle("GET /transactions/{id}", withAuth(handleGetTransaction(txService, l)))
	api.Handle("PUT /transactions/{id}", withAuth(handleUpdateTransaction(txService, l)))
	api.Handle("DELETE /transactions/{id}", withAuth(handleDeleteTransaction(txService, l)))

	api.Handle("GET /budget", withAuth(handleListBudgets(budgetService, l)))
	api.Handle("POST /budget", withAuth(handleCreateBudget(budgetService, l)))
	api.Handle("GET /budget/{id}", withAuth(handleGetBudget(budgetService, l)))
	api.Handle("PUT /budget/{id}", withAuth(handleUpdateBudget(budgetService, l)))
	api.Handle("DELETE /budget/{id}", withAuth(handleDeleteBudget(budgetService, l)))

	api.Handle("GET /goals", withAuth(handleListGoals(goalService, l)))
	api.Handle("POST /goals", withAuth(handleCreateGoal(goalService, l)))
	api.Handle("GET /goals/{id}", withAuth(handleGetGoal(goalService, l)))
	api.Handle("PUT /goals/{id}", withAuth(handleUpdateGoal(goalService, l)))
	api.Handle("DELETE /goals/{id}", withAuth(handleDeleteGoal(goalService, l)))
	api.Handle("POST /goals/{id}/add-money", withAuth(handleGoalAddMoney(goalService, l)))

	api.Handle("GET /categories", withAuth(handleListCategories(txService, l)))

	api.Handle("GET /profile", withAuth(handleGetProfile(profileService, l)))
	api.Handle("PUT /profile", withAuth(handleUpdateProfile(profileService, l)))
	api.Handle("POST /profile/change-password", withAuth(handleChangePassword(profileService, l)))

	api.Handle("GET /analytics/monthly-summary", withAuth(handleMonthlySummary(analyticsService, l)))
	api.Handle("GET /analytics/spending-trends", withAuth(handleSpendingTrends(analyticsService, l)))
	api.Handle("GET /analytics/category-spending", withAuth(handleCategorySpending(analyticsService, l)))

	root := http.NewServeMux()
	root.Handle("GET /health", handleHealth())
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(l),
		middleware.CORS(cfg.CORSOrigins),
	)

	return handler
}

type authService interface {
	// Register user with email and password
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, email string, password string, name string) (models.User, models.TokenPair, error)

	// Login user with email and password
	// Has to return apperrors.ErrInvalidCredentials if credentials don't match
	Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error)

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token invalid: has to return apperrors.ErrRefreshTokenInvalid
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Get request and return user if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type transactionService interface {
	Create(ctx context.Context, userID uuid.UUID, categoryID uuid.UUID, amount decimal.Decimal, description string, date time.Time, txType string) (models.Transaction, error)
	Get(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Transaction, error)
	List(ctx context.Context, userID uuid.UUID, filter models.TransactionFilter) (models.TransactionPage, error)
	Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, params transaction.UpdateParams) (models.Transaction, error)
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
	Categories(ctx context.Context, categoryType string) ([]models.Category, error)
}

type budgetService interface {
	Create(ctx context.Context, userID uuid.UUID, categoryID uuid.UUID, amount decimal.Decimal, month int, year int) (models.Budget, error)
	Get(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Budget, error)
	List(ctx context.Context, userID uuid.UUID, month int, year int) ([]models.BudgetReport, error)
	Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, params budget.UpdateParams) (models.Budget, error)
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
}

type goalService interface {
	Create(ctx context.Context, userID uuid.UUID, title string, description string, targetAmount decimal.Decimal, targetDate *time.Time) (models.Goal, error)
	Get(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Goal, error)
	List(ctx context.Context, userID uuid.UUID, status string) ([]models.Goal, error)
	Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, params goal.UpdateParams) (models.Goal, error)
	AddMoney(ctx context.Context, userID uuid.UUID, id uuid.UUID, amount decimal.Decimal) (models.Goal, error)
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
}

type analyticsService interface {
	MonthlySummary(ctx context.Context, userID uuid.UUID, month int, year int) (models.MonthlySummary, error)
	SpendingTrends(ctx context.Context, userID uuid.UUID, months int) ([]models.MonthlyTrend, error)
	CategorySpending(ctx context.Context, userID uuid.UUID, from time.Time, to time.Time) ([]models.CategorySpending, error)
}

type profileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, name *string, email *string) (models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword string, newPassword string) error
}
