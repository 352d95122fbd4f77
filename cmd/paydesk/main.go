package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"paydesk/internal/backend"
	"paydesk/internal/cli"
	"paydesk/internal/eligibility"
	apphttp "paydesk/internal/http"
	applog "paydesk/internal/log"
	"paydesk/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitStore(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	factory := backend.NewFactory(logger)
	ledger, err := factory.CreateLedger(repo, backend.Config{
		Type:       backend.Type(cfg.LedgerBackend),
		FixtureDir: cfg.FixtureDir,
	})
	if err != nil {
		logger.Error("Failed to initialize ledger backend", applog.FieldError, err)
		os.Exit(1)
	}

	resolver := eligibility.NewResolver(repo, ledger.Balances, ledger.TaxForms)
	service := services.NewExpenseQueryService(repo, ledger.Accounts, resolver)

	srv := apphttp.NewServer(":"+cfg.Port, service, repo, logger, apphttp.Options{
		RequestsPerMinute: cfg.RequestsPerMinute,
		Sweepers:          []apphttp.Sweeper{service.AccountCache()},
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting paydesk server", "port", cfg.Port, "ledger_backend", cfg.LedgerBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
