package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finanze/internal/amqp"
	"finanze/internal/auth"
	"finanze/internal/config"
	apphttp "finanze/internal/http"
	"finanze/internal/log"
	"finanze/internal/services"
	"finanze/internal/storage"
)

func main() {
	// .env is for local development; absence is fine
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: "finanze",
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional; without it change events are simply not published
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange)
	} else {
		logger.Warn("AMQP disabled, change events will not be published")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	srv := apphttp.NewServer(
		apphttp.Config{
			Port:            cfg.Port,
			RateLimitPerMin: cfg.RateLimitPerMinute,
			SummaryCacheTTL: cfg.SummaryCacheTTL,
		},
		services.NewUserService(repo, tokens, logger),
		services.NewBudgetService(repo, publisher, logger),
		services.NewTransactionService(repo, publisher, logger),
		services.NewCreditService(repo, publisher, logger),
		services.NewControlDateService(repo, publisher, logger),
		tokens,
		repo,
		logger,
	)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
