// Package queue runs the engine's background work on River: settlement, achievement triggers,
// rank seeding and scheduled recalculation. Every job is at-least-once; the consumers are
// idempotent.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/config"
	"github.com/yourusername/stakeleague/internal/database"
)

// Service enqueues and works jobs through River
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *logrus.Logger
	workers bool
}

// pendingStates lets a job be enqueued again once the previous one finished
var pendingStates = []rivertype.JobState{
	rivertype.JobStateAvailable,
	rivertype.JobStatePending,
	rivertype.JobStateRetryable,
	rivertype.JobStateRunning,
	rivertype.JobStateScheduled,
}

// NewService creates a River-backed queue service. With nil handlers the client is insert-only,
// which is what the admin CLI uses.
func NewService(pool *pgxpool.Pool, cfg config.QueueConfig, ranking config.RankingConfig, handlers *Handlers, logger *logrus.Logger) (*Service, error) {
	riverConfig := &river.Config{
		JobTimeout:  cfg.JobTimeout(),
		MaxAttempts: cfg.MaxAttempts,
	}

	if handlers != nil {
		workers := river.NewWorkers()
		river.AddWorker(workers, NewSettleCompetitionWorker(handlers.Settlement, logger))
		river.AddWorker(workers, NewCompetitionCreatedWorker(handlers.Achievements, logger))
		river.AddWorker(workers, NewDepositRecordedWorker(handlers.Achievements, logger))
		river.AddWorker(workers, NewUserRegisteredWorker(handlers.Ranks, logger))
		river.AddWorker(workers, NewRecalculateRanksWorker(handlers.Ranks, ranking.Timeout(), logger))

		settlementWorkers := cfg.MaxWorkers / 2
		if settlementWorkers < 1 {
			settlementWorkers = 1
		}

		riverConfig.Workers = workers
		riverConfig.Queues = map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.MaxWorkers},
			QueueSettlement:    {MaxWorkers: settlementWorkers},
			// recalculations never overlap
			QueueRanking: {MaxWorkers: 1},
		}
	}

	client, err := river.NewClient(riverpgxv5.New(pool), riverConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"workers":      handlers != nil,
		"max_workers":  cfg.MaxWorkers,
		"max_attempts": cfg.MaxAttempts,
	}).Info("Queue service initialized")

	return &Service{client: client, pool: pool, logger: logger, workers: handlers != nil}, nil
}

// Start starts working jobs
func (s *Service) Start(ctx context.Context) error {
	if !s.workers {
		return fmt.Errorf("queue service was created without workers")
	}
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.Info("Queue service started")
	return nil
}

// Stop waits for running jobs to finish
func (s *Service) Stop(ctx context.Context) error {
	if !s.workers {
		return nil
	}
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.logger.Info("Queue service stopped")
	return nil
}

// insert adds the job inside the caller's transaction when there is one
func (s *Service) insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) error {
	var (
		res *rivertype.JobInsertResult
		err error
	)
	if tx, ok := database.TxFromContext(ctx); ok {
		res, err = s.client.InsertTx(ctx, tx, args, opts)
	} else {
		res, err = s.client.Insert(ctx, args, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue %s job: %w", args.Kind(), err)
	}

	s.logger.WithFields(logrus.Fields{
		"job_kind":  args.Kind(),
		"job_id":    res.Job.ID,
		"duplicate": res.UniqueSkippedAsDuplicate,
	}).Debug("Job enqueued")
	return nil
}

// EnqueueSettlement schedules settlement of a finalized competition
func (s *Service) EnqueueSettlement(ctx context.Context, competitionID uuid.UUID) error {
	return s.insert(ctx, SettleCompetitionArgs{CompetitionID: competitionID}, &river.InsertOpts{
		Queue:      QueueSettlement,
		UniqueOpts: river.UniqueOpts{ByArgs: true},
	})
}

// EnqueueCompetitionCreated schedules the host achievement checks
func (s *Service) EnqueueCompetitionCreated(ctx context.Context, competitionID uuid.UUID) error {
	return s.insert(ctx, CompetitionCreatedArgs{CompetitionID: competitionID}, &river.InsertOpts{
		UniqueOpts: river.UniqueOpts{ByArgs: true},
	})
}

// EnqueueDepositRecorded schedules the deposit achievement checks
func (s *Service) EnqueueDepositRecorded(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	return s.insert(ctx, DepositRecordedArgs{UserID: userID, Amount: amount}, &river.InsertOpts{
		UniqueOpts: river.UniqueOpts{ByArgs: true, ByState: pendingStates},
	})
}

// EnqueueUserRegistered schedules rank seeding for a new user
func (s *Service) EnqueueUserRegistered(ctx context.Context, userID uuid.UUID, country string) error {
	return s.insert(ctx, UserRegisteredArgs{UserID: userID, Country: country}, &river.InsertOpts{
		UniqueOpts: river.UniqueOpts{ByArgs: true},
	})
}

// EnqueueRecalculation schedules a rank recalculation unless one is already pending
func (s *Service) EnqueueRecalculation(ctx context.Context) error {
	return s.insert(ctx, RecalculateRanksArgs{}, &river.InsertOpts{
		Queue:      QueueRanking,
		UniqueOpts: river.UniqueOpts{ByArgs: true, ByState: pendingStates},
	})
}

// ListJobs returns the most recent jobs, optionally filtered by kind
func (s *Service) ListJobs(ctx context.Context, kind string, limit int) ([]JobInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, state, attempt, max_attempts, created_at
		FROM river_job
		WHERE $1 = '' OR kind = $1
		ORDER BY id DESC
		LIMIT $2`, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (JobInfo, error) {
		var (
			info      JobInfo
			createdAt time.Time
		)
		err := row.Scan(&info.ID, &info.Kind, &info.State, &info.Attempt, &info.MaxAttempts, &createdAt)
		info.CreatedAt = createdAt.Format(time.RFC3339)
		return info, err
	})
}

// HealthCheck verifies the job table is reachable
func (s *Service) HealthCheck(ctx context.Context) error {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM river_job WHERE state = 'available'`).Scan(&count); err != nil {
		return fmt.Errorf("queue health check failed: %w", err)
	}
	s.logger.WithField("available_jobs", count).Debug("Queue health check passed")
	return nil
}
