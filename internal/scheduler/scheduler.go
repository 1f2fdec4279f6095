// Package scheduler triggers the periodic rank recalculation on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Enqueuer schedules a rank recalculation job
type Enqueuer interface {
	EnqueueRecalculation(ctx context.Context) error
}

// Scheduler manages the engine's cron entries
type Scheduler struct {
	cron           *cron.Cron
	enqueuer       Enqueuer
	logger         *logrus.Logger
	mu             sync.RWMutex
	isRunning      bool
	jobIDs         []cron.EntryID
	enqueueTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(enqueuer Enqueuer, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:           cron.New(cron.WithLocation(time.UTC)),
		enqueuer:       enqueuer,
		logger:         logger,
		jobIDs:         make([]cron.EntryID, 0),
		enqueueTimeout: 30 * time.Second,
	}
}

// ScheduleRecalculation enqueues a recalculation job on every tick of spec.
// The queue drops the tick when a recalculation is already pending.
func (s *Scheduler) ScheduleRecalculation(spec string) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return 0, fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(spec, s.enqueueRecalculation)
	if err != nil {
		return 0, fmt.Errorf("failed to add recalculation job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("schedule", spec).Info("Scheduled rank recalculation")
	return entryID, nil
}

func (s *Scheduler) enqueueRecalculation() {
	ctx, cancel := context.WithTimeout(context.Background(), s.enqueueTimeout)
	defer cancel()

	if err := s.enqueuer.EnqueueRecalculation(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to enqueue scheduled rank recalculation")
		return
	}
	s.logger.Debug("Scheduled rank recalculation enqueued")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running tick to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled tick, or zero when stopped
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	var next time.Time
	for _, id := range s.jobIDs {
		entry := s.cron.Entry(id)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}
