package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finanze/internal/amqp"
	"finanze/internal/config"
	"finanze/internal/log"
	"finanze/internal/sheets"
	"finanze/internal/storage"
	"finanze/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: "finanze-worker",
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// spreadsheet export is optional
	var exporter sheets.TransactionWriter
	if cfg.SheetsExportEnabled() {
		gc, err := sheets.NewGoogleClient(ctx, sheets.GoogleConfig{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = gc
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled")
	}

	auditWorker := worker.NewAuditWorker(repo, exporter, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeChanges(ctx, func(event *amqp.ChangeEvent) error {
			return auditWorker.HandleChangeEvent(ctx, event)
		})
	})

	logger.Info("Worker started", "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
