package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bot-zamovlennya/internal/cache"
	"bot-zamovlennya/internal/config"
	"bot-zamovlennya/internal/convo"
	"bot-zamovlennya/internal/httpserver"
	"bot-zamovlennya/internal/ledger"
	"bot-zamovlennya/internal/logging"
	"bot-zamovlennya/internal/metrics"
	"bot-zamovlennya/internal/repo"
	"bot-zamovlennya/internal/sheets"
	"bot-zamovlennya/internal/wa"
	"bot-zamovlennya/migrations"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.AppEnv)
	logger.Info("starting order-ledger bot", "env", cfg.AppEnv)

	if cfg.PublicBaseURL != "" {
		logger.Info("public base url configured", "base_url", strings.TrimRight(cfg.PublicBaseURL, "/"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	var auditRepo repo.Repository
	switch {
	case cfg.DatabaseURL != "":
		pg, err := repo.NewPostgres(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("init postgres repository: %w", err)
		}
		auditRepo = pg
	case cfg.SQLitePath != "":
		lite, err := repo.NewSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return fmt.Errorf("init sqlite repository: %w", err)
		}
		auditRepo = lite
	default:
		logger.Info("audit log disabled, no database configured")
	}
	if auditRepo != nil {
		defer auditRepo.Close()
		if err := auditRepo.RunMigrations(ctx, migrations.Files); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("audit database migrated")
	}

	var redisClient *cache.Redis
	if cfg.RedisAddr != "" {
		redisClient = cache.New(cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
		}, logger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("failed closing redis", "error", err)
			}
		}()
		if err := redisClient.Ping(ctx); err != nil {
			logger.Warn("redis ping failed", "error", err)
		}
	}

	sheetsClient, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   cfg.SpreadsheetID,
		CredentialsJSON: cfg.CredentialsJSON,
	}, logger, metricRegistry, redisClient)
	if err != nil {
		return fmt.Errorf("init sheets client: %w", err)
	}

	waClient, err := wa.New(ctx, wa.Config{
		StorePath: cfg.WhatsAppStorePath,
		LogLevel:  cfg.WhatsAppLogLevel,
		Metrics:   metricRegistry,
	}, logger)
	if err != nil {
		return fmt.Errorf("init whatsapp client: %w", err)
	}
	defer waClient.Close()

	queryEngine := ledger.NewQueryEngine(sheetsClient, logger, metricRegistry)
	sessions := convo.NewSessionStore()
	convoEngine := convo.New(sheetsClient, queryEngine, waClient, sessions, auditRepo, metricRegistry, logger)
	waClient.SetMessageProcessor(convoEngine)

	waCtx, waCancel := context.WithCancel(ctx)
	defer waCancel()
	go func() {
		if err := waClient.Start(waCtx); err != nil {
			logger.Error("whatsapp client stopped", "error", err)
			stop()
		}
	}()

	httpSrv := httpserver.New(cfg.HTTPListenAddr, logger, metricRegistry, httpserver.Dependencies{
		Repository: auditRepo,
		Redis:      redisClient,
		Sheets:     sheetsClient,
	}, cfg.PublicBasePath)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return nil
}
