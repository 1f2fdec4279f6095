// Package ranking recalculates world and country positions across the whole rank corpus
// and seeds rank records for new users.
package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/config"
	"github.com/yourusername/stakeleague/internal/logger"
	"github.com/yourusername/stakeleague/internal/metrics"
	"github.com/yourusername/stakeleague/internal/models"
	"github.com/yourusername/stakeleague/internal/repository"
)

// Report summarizes one recalculation pass
type Report struct {
	Records   int
	Pages     int
	Countries int
	Changed   int
	Written   int64
	Duration  time.Duration
}

// Engine runs rank recalculation passes
type Engine struct {
	ranks  repository.RankRepository
	cfg    config.RankingConfig
	log    *logger.RankLogger
	logger *logrus.Logger
	now    func() time.Time
}

// NewEngine creates a ranking engine
func NewEngine(repos *repository.Repositories, cfg config.RankingConfig, log *logrus.Logger) *Engine {
	return &Engine{
		ranks:  repos.Rank,
		cfg:    cfg,
		log:    logger.NewRankLogger(log),
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Recalculate snapshots every rank, recomputes positions and trends in all scopes and writes
// them back in one bulk update. Points are never written. On error or cancellation nothing
// is written and the stored positions stay as they were.
func (e *Engine) Recalculate(ctx context.Context) (*Report, error) {
	start := time.Now()
	if e.cfg.TimeoutMinutes > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.TimeoutMinutes)*time.Minute)
		defer cancel()
	}

	report := &Report{}
	snapshots, err := e.snapshot(ctx, report)
	if err != nil {
		return nil, e.abort("snapshot", report, start, err)
	}

	positions, countries := Compute(snapshots)
	report.Countries = countries
	for i := range positions {
		if positions[i].Changed() {
			report.Changed++
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, e.abort("compute", report, start, err)
	}

	written, err := e.ranks.UpdatePositions(ctx, positions)
	if err != nil {
		return nil, e.abort("write", report, start, err)
	}
	report.Written = written
	report.Duration = time.Since(start)

	metrics.RecordRecalculation("success", report.Duration.Seconds(), report.Records, report.Changed)
	e.log.LogRecalculation(report.Records, report.Pages, report.Countries, report.Changed, report.Duration)
	return report, nil
}

// snapshot reads the corpus in keyset pages ordered by user id
func (e *Engine) snapshot(ctx context.Context, report *Report) ([]models.RankSnapshot, error) {
	pageSize := e.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	var (
		all   []models.RankSnapshot
		after uuid.UUID
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := e.ranks.Scan(ctx, after, pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ranks after %s: %w", after, err)
		}
		if len(page) == 0 {
			break
		}

		report.Pages++
		all = append(all, page...)
		report.Records = len(all)
		after = page[len(page)-1].UserID

		if len(page) < pageSize {
			break
		}
	}
	return all, nil
}

func (e *Engine) abort(stage string, report *Report, start time.Time, err error) error {
	metrics.RecordRecalculation("failed", time.Since(start).Seconds(), report.Records, 0)
	e.log.LogRecalculationAborted(stage, report.Records, err)
	return fmt.Errorf("rank recalculation failed during %s: %w", stage, err)
}

// Seed creates the rank record for a new user, placed last in the world and in their country.
// Seeding an existing user returns the stored record unchanged.
func (e *Engine) Seed(ctx context.Context, userID uuid.UUID, country string) (*models.Rank, error) {
	country = strings.ToUpper(strings.TrimSpace(country))

	rank, created, err := e.ranks.Seed(ctx, userID, country, e.now())
	if err != nil {
		return nil, fmt.Errorf("failed to seed rank for user %s: %w", userID, err)
	}

	e.log.LogSeed(userID.String(), country, rank.WorldRank.Position, rank.CountryRank.Position, created)
	return rank, nil
}
