// Package main provides the entry point for the settlement and ranking engine.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/achievement"
	"github.com/yourusername/stakeleague/internal/config"
	"github.com/yourusername/stakeleague/internal/database"
	"github.com/yourusername/stakeleague/internal/fx"
	"github.com/yourusername/stakeleague/internal/health"
	"github.com/yourusername/stakeleague/internal/logger"
	"github.com/yourusername/stakeleague/internal/metrics"
	"github.com/yourusername/stakeleague/internal/notification"
	"github.com/yourusername/stakeleague/internal/queue"
	"github.com/yourusername/stakeleague/internal/ranking"
	"github.com/yourusername/stakeleague/internal/repository"
	"github.com/yourusername/stakeleague/internal/scheduler"
	"github.com/yourusername/stakeleague/internal/settlement"
	"github.com/yourusername/stakeleague/internal/wallet"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(context.Background(), cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"commit":      GitCommit,
	}).Info("Stakeleague engine starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Initialize(ctx, cfg, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()
	appLog.Info("Database connection established")

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	metrics.InitRegistry()

	// External collaborators
	walletClient := wallet.NewHTTPWallet(cfg.Wallet, appLog)
	defer walletClient.Close()
	notifier := notification.New(cfg.Notifications, appLog)
	if closer, ok := notifier.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	converter := fx.NewConverter(cfg.FX, appLog)

	// Domain services
	achievements := achievement.NewEngine(repos, converter, notifier, cfg.Achievements, appLog)
	pipeline := settlement.NewPipeline(repos, walletClient, achievements, notifier, cfg.Settlement, appLog)
	ranks := ranking.NewEngine(repos, cfg.Ranking, appLog)

	queueSvc, err := queue.NewService(db.GetPool(), cfg.Queue, cfg.Ranking, &queue.Handlers{
		Settlement:   pipeline,
		Achievements: achievements,
		Ranks:        ranks,
	}, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create queue service")
	}
	if err := queueSvc.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start queue service")
	}

	sched := scheduler.NewScheduler(queueSvc, appLog)
	if _, err := sched.ScheduleRecalculation(cfg.Ranking.Schedule); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule rank recalculation")
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}

	healthCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        strconv.Itoa(cfg.Metrics.Port),
		Logger:      appLog,
		Checks: map[string]health.CheckFunc{
			"database": db.Ping,
			"queue":    queueSvc.HealthCheck,
		},
	}
	if cfg.Metrics.Enabled {
		healthCfg.Metrics = metrics.Handler()
		healthCfg.MetricsPath = cfg.Metrics.Path
	}
	healthServer := health.NewServer(healthCfg)
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}
	healthServer.SetReady(true)

	appLog.WithFields(logrus.Fields{
		"max_workers":        cfg.Queue.MaxWorkers,
		"ranking_schedule":   cfg.Ranking.Schedule,
		"next_recalculation": sched.NextRun().Format(time.RFC3339),
	}).Info("Engine is running")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthServer.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		appLog.WithError(err).Error("Error stopping scheduler")
	}
	if err := queueSvc.Stop(shutdownCtx); err != nil {
		appLog.WithError(err).Error("Error stopping queue service")
	}
	if err := healthServer.Shutdown(); err != nil {
		appLog.WithError(err).Error("Error stopping health server")
	}

	appLog.Info("Engine stopped")
}
