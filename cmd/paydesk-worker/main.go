package main

import (
	"context"
	"os"
	"time"

	"paydesk/internal/amqp"
	"paydesk/internal/backend"
	"paydesk/internal/cli"
	"paydesk/internal/eligibility"
	applog "paydesk/internal/log"
	"paydesk/internal/services"
	"paydesk/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting paydesk-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if len(cfg.DigestHosts) == 0 {
		logger.Error("No digest hosts configured - set DIGEST_HOSTS")
		os.Exit(1)
	}

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

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	digestWorker := worker.NewDigestWorker(service, amqpClient, cfg.DigestHosts, cfg.DigestInterval, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := digestWorker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("Digest worker failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
