package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vipul43/portfolio-sync-worker/internal/api"
	"github.com/vipul43/portfolio-sync-worker/internal/config"
	"github.com/vipul43/portfolio-sync-worker/internal/database"
	"github.com/vipul43/portfolio-sync-worker/internal/jobstore"
	"github.com/vipul43/portfolio-sync-worker/internal/notify"
	"github.com/vipul43/portfolio-sync-worker/internal/portfolio"
	"github.com/vipul43/portfolio-sync-worker/internal/repository"
	"github.com/vipul43/portfolio-sync-worker/internal/service"
	"github.com/vipul43/portfolio-sync-worker/internal/watcher"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := run(logger); err != nil {
		logger.Fatalf("Application error: %v", err)
	}
}

func run(logger *logrus.Logger) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := database.RunMigrations(db); err != nil {
		return err
	}
	logger.Info("Migrations completed successfully")

	// Initialize repositories
	configRepo := repository.NewIntegrationConfigRepository(db.DB)
	clientRepo := repository.NewClientRepository(db.DB)
	accountRepo := repository.NewFinancialAccountRepository(db.DB)
	snapshotRepo := repository.NewAumSnapshotRepository(db.DB)

	// Initialize services
	portfolioClient := portfolio.NewClient(
		cfg.PortfolioAPIURL,
		cfg.PortfolioTokenURL,
		cfg.PortfolioClientID,
		cfg.PortfolioClientSecret,
		time.Duration(cfg.HTTPTimeout)*time.Second,
	)
	tokenResolver := service.NewTokenResolver(configRepo, portfolioClient, logger)
	recordMapper := service.NewRecordMapper(clientRepo, accountRepo, snapshotRepo)

	store := jobstore.NewMemoryStore()
	orchestrator := service.NewSyncOrchestrator(tokenResolver, portfolioClient, recordMapper, store, logger)

	// Completion events are optional
	var notifier watcher.Notifier
	if cfg.RabbitMQURL != "" {
		publisher, err := notify.NewRabbitPublisher(cfg.RabbitMQURL, notify.DefaultExchange, notify.DefaultRoutingKey)
		if err != nil {
			return err
		}
		defer publisher.Close()
		notifier = publisher
		logger.Info("RabbitMQ publisher connected")
	}

	// Initialize watcher and retention sweeper
	w := watcher.New(store, orchestrator, notifier, logger)
	sweeper := watcher.NewSweeper(store, cfg.RetentionKeep, cfg.RetentionSchedule, logger)
	if err := sweeper.Start(); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(w, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start watcher and HTTP server in goroutines
	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Start(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or error
	watcherDone := false
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		logger.WithError(err).Error("HTTP server failed")
	case err := <-errChan:
		watcherDone = true
		logger.WithError(err).Error("Watcher stopped unexpectedly")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown incomplete")
	}
	sweeper.Stop(shutdownCtx)

	// Wait for the running job to return
	cancel()
	if !watcherDone {
		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout exceeded")
		case err := <-errChan:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("Watcher error")
			}
		}
	}

	logger.Info("Application stopped")
	return nil
}
