package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/metrics"
	"github.com/yourusername/stakeleague/internal/models"
	"github.com/yourusername/stakeleague/internal/ranking"
	"github.com/yourusername/stakeleague/internal/settlement"
)

// Settler runs the settlement pipeline for one competition
type Settler interface {
	Settle(ctx context.Context, competitionID uuid.UUID) (*settlement.Report, error)
}

// AchievementTrigger evaluates the achievements fired by lifecycle events
type AchievementTrigger interface {
	OnCompetitionCreated(ctx context.Context, competitionID uuid.UUID) error
	OnDeposit(ctx context.Context, userID uuid.UUID) error
}

// RankMaintainer seeds and recalculates ranks
type RankMaintainer interface {
	Seed(ctx context.Context, userID uuid.UUID, country string) (*models.Rank, error)
	Recalculate(ctx context.Context) (*ranking.Report, error)
}

// Handlers are the domain services the workers delegate to
type Handlers struct {
	Settlement   Settler
	Achievements AchievementTrigger
	Ranks        RankMaintainer
}

// observe records the outcome of a job in logs and metrics
func observe(logger *logrus.Logger, kind string, jobID int64, attempt int, start time.Time, err error, cancelled bool) error {
	entry := logger.WithFields(logrus.Fields{
		"job_kind":    kind,
		"job_id":      jobID,
		"attempt":     attempt,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	switch {
	case err == nil:
		metrics.RecordQueueJob(kind, "completed")
		entry.Debug("Job completed")
	case cancelled:
		metrics.RecordQueueJob(kind, "cancelled")
		entry.WithError(err).Error("Job cancelled")
	default:
		metrics.RecordQueueJob(kind, "failed")
		entry.WithError(err).Warn("Job failed, will retry")
	}
	return err
}

// SettleCompetitionWorker works settlement jobs
type SettleCompetitionWorker struct {
	river.WorkerDefaults[SettleCompetitionArgs]
	settler Settler
	logger  *logrus.Logger
}

// NewSettleCompetitionWorker creates the settlement worker
func NewSettleCompetitionWorker(settler Settler, logger *logrus.Logger) *SettleCompetitionWorker {
	return &SettleCompetitionWorker{settler: settler, logger: logger}
}

// Work settles the competition. A missing or unfinalized competition cancels the job
// instead of retrying.
func (w *SettleCompetitionWorker) Work(ctx context.Context, job *river.Job[SettleCompetitionArgs]) error {
	start := time.Now()
	_, err := w.settler.Settle(ctx, job.Args.CompetitionID)
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, settlement.ErrNotFinalized) {
		observe(w.logger, job.Kind, job.ID, job.Attempt, start, err, true)
		return river.JobCancel(fmt.Errorf("competition %s: %w", job.Args.CompetitionID, err))
	}
	return observe(w.logger, job.Kind, job.ID, job.Attempt, start, err, false)
}

// CompetitionCreatedWorker evaluates host achievements
type CompetitionCreatedWorker struct {
	river.WorkerDefaults[CompetitionCreatedArgs]
	trigger AchievementTrigger
	logger  *logrus.Logger
}

// NewCompetitionCreatedWorker creates the competition-created worker
func NewCompetitionCreatedWorker(trigger AchievementTrigger, logger *logrus.Logger) *CompetitionCreatedWorker {
	return &CompetitionCreatedWorker{trigger: trigger, logger: logger}
}

func (w *CompetitionCreatedWorker) Work(ctx context.Context, job *river.Job[CompetitionCreatedArgs]) error {
	start := time.Now()
	err := w.trigger.OnCompetitionCreated(ctx, job.Args.CompetitionID)
	if errors.Is(err, models.ErrNotFound) {
		observe(w.logger, job.Kind, job.ID, job.Attempt, start, err, true)
		return river.JobCancel(err)
	}
	return observe(w.logger, job.Kind, job.ID, job.Attempt, start, err, false)
}

// DepositRecordedWorker evaluates deposit achievements
type DepositRecordedWorker struct {
	river.WorkerDefaults[DepositRecordedArgs]
	trigger AchievementTrigger
	logger  *logrus.Logger
}

// NewDepositRecordedWorker creates the deposit worker
func NewDepositRecordedWorker(trigger AchievementTrigger, logger *logrus.Logger) *DepositRecordedWorker {
	return &DepositRecordedWorker{trigger: trigger, logger: logger}
}

func (w *DepositRecordedWorker) Work(ctx context.Context, job *river.Job[DepositRecordedArgs]) error {
	start := time.Now()
	err := w.trigger.OnDeposit(ctx, job.Args.UserID)
	return observe(w.logger, job.Kind, job.ID, job.Attempt, start, err, false)
}

// UserRegisteredWorker seeds ranks for new users
type UserRegisteredWorker struct {
	river.WorkerDefaults[UserRegisteredArgs]
	ranks  RankMaintainer
	logger *logrus.Logger
}

// NewUserRegisteredWorker creates the registration worker
func NewUserRegisteredWorker(ranks RankMaintainer, logger *logrus.Logger) *UserRegisteredWorker {
	return &UserRegisteredWorker{ranks: ranks, logger: logger}
}

func (w *UserRegisteredWorker) Work(ctx context.Context, job *river.Job[UserRegisteredArgs]) error {
	start := time.Now()
	_, err := w.ranks.Seed(ctx, job.Args.UserID, job.Args.Country)
	return observe(w.logger, job.Kind, job.ID, job.Attempt, start, err, false)
}

// RecalculateRanksWorker runs the periodic recalculation
type RecalculateRanksWorker struct {
	river.WorkerDefaults[RecalculateRanksArgs]
	ranks   RankMaintainer
	timeout time.Duration
	logger  *logrus.Logger
}

// NewRecalculateRanksWorker creates the recalculation worker
func NewRecalculateRanksWorker(ranks RankMaintainer, timeout time.Duration, logger *logrus.Logger) *RecalculateRanksWorker {
	return &RecalculateRanksWorker{ranks: ranks, timeout: timeout, logger: logger}
}

// Timeout bounds a recalculation by the ranking timeout instead of the client-wide one
func (w *RecalculateRanksWorker) Timeout(*river.Job[RecalculateRanksArgs]) time.Duration {
	return w.timeout
}

func (w *RecalculateRanksWorker) Work(ctx context.Context, job *river.Job[RecalculateRanksArgs]) error {
	start := time.Now()
	_, err := w.ranks.Recalculate(ctx)
	return observe(w.logger, job.Kind, job.ID, job.Attempt, start, err, false)
}
