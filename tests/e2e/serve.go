package e2e

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/fintrack/internal/handlers"
	"github.com/nkiryanov/fintrack/internal/logger"
	"github.com/nkiryanov/fintrack/internal/repository/postgres"
	"github.com/nkiryanov/fintrack/internal/service/analytics"
	"github.com/nkiryanov/fintrack/internal/service/auth"
	"github.com/nkiryanov/fintrack/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/fintrack/internal/service/budget"
	"github.com/nkiryanov/fintrack/internal/service/goal"
	"github.com/nkiryanov/fintrack/internal/service/transaction"
	"github.com/nkiryanov/fintrack/internal/service/user"
)

// TokenTTL controls the issued token lifetimes, zero values use the service defaults
type TokenTTL struct {
	Access  time.Duration
	Refresh time.Duration
}

// Serve wires the full API over the given storage backend and runs it on a
// test HTTP server. Pass a transaction-backed storage to keep the database
// clean between tests.
func Serve(t *testing.T, db postgres.DBTX, ttl TokenTTL) *httptest.Server {
	t.Helper()

	storage := postgres.NewStorage(db)

	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  "e2e-access-secret",
		RefreshSecret: "e2e-refresh-secret",
		AccessTTL:     ttl.Access,
		RefreshTTL:    ttl.Refresh,
	})
	require.NoError(t, err)

	authService, err := auth.NewService(auth.Config{}, tokenManager, storage.User())
	require.NoError(t, err)

	router := handlers.NewRouter(
		handlers.RouterConfig{},
		authService,
		transaction.NewService(storage.Transaction(), storage.Category()),
		budget.NewService(storage.Budget(), storage.Transaction(), storage.Category()),
		goal.NewService(storage.Goal()),
		analytics.NewService(storage.Transaction()),
		user.NewService(nil, storage.User()),
		logger.NewNoOpLogger(),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}
