package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"financebot/internal/amqp"
	"financebot/internal/cli"
	"financebot/internal/config"
	applog "financebot/internal/log"
	"financebot/internal/sheets/google"
	"financebot/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig(applog.ComponentWorker, (*config.Config).ValidateWorker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("financebot-worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	mirror, err := google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
	}, logger)
	if err != nil {
		return err
	}
	if err := mirror.EnsureHeader(ctx); err != nil {
		return err
	}
	logger.Info("Google Sheets mirror ready",
		applog.FieldOperation, applog.OpStartup,
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	err = worker.NewMirrorWorker(mirror, logger).Run(ctx, client)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
