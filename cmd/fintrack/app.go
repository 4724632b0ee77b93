package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/fintrack/internal/db"
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

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{}, tokenManager, storage.User())
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	txService := transaction.NewService(storage.Transaction(), storage.Category())
	budgetService := budget.NewService(storage.Budget(), storage.Transaction(), storage.Category())
	goalService := goal.NewService(storage.Goal())
	analyticsService := analytics.NewService(storage.Transaction())
	profileService := user.NewService(nil, storage.User())

	mux := handlers.NewRouter(
		handlers.RouterConfig{CORSOrigins: c.CORSOrigins},
		authService,
		txService,
		budgetService,
		goalService,
		analyticsService,
		profileService,
		l,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     l,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
