// Package main provides the stakeleague admin CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/stakeleague/internal/achievement"
	"github.com/yourusername/stakeleague/internal/competition"
	"github.com/yourusername/stakeleague/internal/config"
	"github.com/yourusername/stakeleague/internal/database"
	"github.com/yourusername/stakeleague/internal/fx"
	applogger "github.com/yourusername/stakeleague/internal/logger"
	"github.com/yourusername/stakeleague/internal/notification"
	"github.com/yourusername/stakeleague/internal/queue"
	"github.com/yourusername/stakeleague/internal/ranking"
	"github.com/yourusername/stakeleague/internal/repository"
	"github.com/yourusername/stakeleague/internal/settlement"
	"github.com/yourusername/stakeleague/internal/wallet"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	logger     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:     "stakectl",
	Short:   "Administer the stakeleague settlement and ranking engine",
	Version: fmt.Sprintf("%s (%s)", Version, GitCommit),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		var err error
		db, err = database.NewDB(cmd.Context(), &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			return err
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger = applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	return nil
}

// services holds the in-process domain services a command runs against
type services struct {
	repos        *repository.Repositories
	queue        *queue.Service
	achievements *achievement.Engine
	pipeline     *settlement.Pipeline
	ranks        *ranking.Engine
	competitions *competition.Service
}

// setupServices wires the domain services the same way the engine does, with an
// insert-only queue client so jobs are handed to the running engine.
func setupServices() (*services, error) {
	repos, err := repository.NewRepositories(db)
	if err != nil {
		return nil, err
	}

	q, err := queue.NewService(db.GetPool(), cfg.Queue, cfg.Ranking, nil, logger)
	if err != nil {
		return nil, err
	}

	walletClient := wallet.NewHTTPWallet(cfg.Wallet, logger)
	notifier := notification.New(cfg.Notifications, logger)
	achievements := achievement.NewEngine(repos, fx.NewConverter(cfg.FX, logger), notifier, cfg.Achievements, logger)

	return &services{
		repos:        repos,
		queue:        q,
		achievements: achievements,
		pipeline:     settlement.NewPipeline(repos, walletClient, achievements, notifier, cfg.Settlement, logger),
		ranks:        ranking.NewEngine(repos, cfg.Ranking, logger),
		competitions: competition.NewService(repos, walletClient, q, cfg.Competition, logger),
	}, nil
}
