package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MrJamesThe3rd/expensight/internal/auth"
	"github.com/MrJamesThe3rd/expensight/internal/config"
	"github.com/MrJamesThe3rd/expensight/internal/database"
	"github.com/MrJamesThe3rd/expensight/internal/expense"
	expenseStore "github.com/MrJamesThe3rd/expensight/internal/expense/store"
	"github.com/MrJamesThe3rd/expensight/internal/fx"
	appHttp "github.com/MrJamesThe3rd/expensight/internal/http"
	authHandler "github.com/MrJamesThe3rd/expensight/internal/http/auth"
	"github.com/MrJamesThe3rd/expensight/internal/http/authn"
	dashboardHandler "github.com/MrJamesThe3rd/expensight/internal/http/dashboard"
	expenseHandler "github.com/MrJamesThe3rd/expensight/internal/http/expense"
	receiptHandler "github.com/MrJamesThe3rd/expensight/internal/http/receipt"
	reconcileHandler "github.com/MrJamesThe3rd/expensight/internal/http/reconcile"
	userHandler "github.com/MrJamesThe3rd/expensight/internal/http/user"
	"github.com/MrJamesThe3rd/expensight/internal/receipt"
	receiptStore "github.com/MrJamesThe3rd/expensight/internal/receipt/store"
	"github.com/MrJamesThe3rd/expensight/internal/reconcile"
	reconcileStore "github.com/MrJamesThe3rd/expensight/internal/reconcile/store"
	"github.com/MrJamesThe3rd/expensight/internal/telemetry"
	"github.com/MrJamesThe3rd/expensight/internal/user"
	userStore "github.com/MrJamesThe3rd/expensight/internal/user/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: cfg.App.Name,
		Exporter:    cfg.Tracing.Exporter,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}

	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := shutdownTracing(flushCtx); err != nil {
			slog.Error("failed to flush traces", "error", err)
		}
	}()

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	logger := slog.Default()

	var (
		userService      = user.NewService(userStore.New(db))
		expenseService   = expense.NewService(expenseStore.New(db))
		rates            = fx.NewFrankfurterClient(cfg.FX.BaseURL, cfg.FX.Timeout)
		reconcileService = reconcile.NewService(reconcileStore.New(db), expenseService, rates, logger)
		tokens           = auth.NewTokenIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	)

	handlers := appHttp.Handlers{
		Auth:      authHandler.NewHandler(userService, tokens),
		User:      userHandler.NewHandler(userService),
		Expense:   expenseHandler.NewHandler(expenseService),
		Reconcile: reconcileHandler.NewHandler(reconcileService),
		Dashboard: dashboardHandler.NewHandler(expenseService),
	}

	if cfg.Gemini.APIKey != "" {
		extractor, err := receipt.NewGeminiExtractor(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return fmt.Errorf("creating receipt extractor: %w", err)
		}

		handlers.Receipt = receiptHandler.NewHandler(receipt.NewService(receiptStore.New(db), extractor, logger))
	} else {
		slog.Warn("GEMINI_API_KEY not set, receipt upload disabled")
	}

	router := appHttp.New(handlers, appHttp.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Authenticate:   authn.Middleware(tokens, userService),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           otelhttp.NewHandler(router, cfg.App.Name),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + cfg.FX.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
