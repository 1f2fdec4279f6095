// Package settlement pays out and scores a finalized competition.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/config"
	"github.com/yourusername/stakeleague/internal/logger"
	"github.com/yourusername/stakeleague/internal/metrics"
	"github.com/yourusername/stakeleague/internal/models"
	"github.com/yourusername/stakeleague/internal/notification"
	"github.com/yourusername/stakeleague/internal/repository"
	"github.com/yourusername/stakeleague/internal/wallet"
)

// ErrNotFinalized is returned for a competition whose winners were never recorded
var ErrNotFinalized = errors.New("competition has no recorded winners")

// WinnerEvaluator runs the achievement rules for the winners of a settled competition
type WinnerEvaluator interface {
	EvaluateWinners(ctx context.Context, c *models.Competition)
}

// Payout is one winner's share and how crediting it went
type Payout struct {
	UserID    uuid.UUID
	Amount    decimal.Decimal
	Reference string
	Err       error
}

// Report summarizes one settlement run
type Report struct {
	CompetitionID uuid.UUID
	Skipped       bool
	Payouts       []Payout
	PayoutsFailed int
	Winners       int
	Losers        int
	MissingRanks  []uuid.UUID
	Duration      time.Duration
}

// Pipeline settles finalized competitions
type Pipeline struct {
	competitions repository.CompetitionRepository
	settlements  repository.SettlementRepository
	wallet       wallet.Wallet
	achievements WinnerEvaluator
	notifier     notification.Notifier
	cfg          config.SettlementConfig
	audit        *logger.AuditLogger
	logger       *logrus.Logger
	now          func() time.Time
}

// NewPipeline creates a settlement pipeline
func NewPipeline(
	repos *repository.Repositories,
	w wallet.Wallet,
	achievements WinnerEvaluator,
	notifier notification.Notifier,
	cfg config.SettlementConfig,
	log *logrus.Logger,
) *Pipeline {
	return &Pipeline{
		competitions: repos.Competition,
		settlements:  repos.Settlement,
		wallet:       w,
		achievements: achievements,
		notifier:     notifier,
		cfg:          cfg,
		audit:        logger.NewAuditLogger(log),
		logger:       log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// PayoutReference is the idempotency key of a winner's prize credit
func PayoutReference(competitionID, userID uuid.UUID) string {
	return fmt.Sprintf("settlement:%s:%s", competitionID, userID)
}

// Settle pays the winners, applies the batched rank update and runs the winner achievements.
// Only a failed competition lookup or a failed rank update is returned; payout failures are
// logged and skipped. Settling an already settled competition is a no-op.
func (p *Pipeline) Settle(ctx context.Context, competitionID uuid.UUID) (*Report, error) {
	start := time.Now()
	report := &Report{CompetitionID: competitionID}
	entry := p.logger.WithField("competition_id", competitionID.String())

	c, err := p.competitions.GetByID(ctx, competitionID)
	if err != nil {
		metrics.RecordSettlement("failed", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to load competition %s: %w", competitionID, err)
	}

	if c.IsSettled() {
		entry.Info("Competition already settled, skipping")
		return p.skip(report, start), nil
	}
	if len(c.Winners) == 0 {
		metrics.RecordSettlement("failed", time.Since(start).Seconds())
		return nil, fmt.Errorf("competition %s: %w", competitionID, ErrNotFinalized)
	}

	losers := c.Losers()
	report.Winners, report.Losers = len(c.Winners), len(losers)
	report.Payouts = p.payout(ctx, c)
	for _, po := range report.Payouts {
		if po.Err != nil {
			report.PayoutsFailed++
		}
	}

	outcome := &models.SettlementOutcome{
		CompetitionID: c.ID,
		Category:      c.Type.Category(),
		Winners:       c.Winners,
		Losers:        losers,
		WinPoints:     p.cfg.WinPoints,
		LossPoints:    p.cfg.LossPoints,
		SettledAt:     p.now(),
	}
	err = p.settlements.ApplyOutcome(ctx, outcome)
	if errors.Is(err, models.ErrAlreadySettled) {
		entry.Info("Competition settled concurrently, skipping rank update")
		return p.skip(report, start), nil
	}
	if err != nil {
		metrics.RecordSettlement("failed", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to apply settlement for %s: %w", competitionID, err)
	}

	if len(outcome.MissingRanks) > 0 {
		report.MissingRanks = outcome.MissingRanks
		missing := make([]string, len(outcome.MissingRanks))
		for i, id := range outcome.MissingRanks {
			missing[i] = id.String()
		}
		entry.WithField("user_ids", missing).Warn("Participants without a rank record were not credited")
	}

	p.achievements.EvaluateWinners(ctx, c)

	for _, id := range losers {
		p.notifier.Notify(ctx, notification.Notification{
			UserID:  id,
			Type:    notification.TypeSettlement,
			Title:   "Competition settled",
			Message: fmt.Sprintf("Competition %s has been settled. You earned %d points.", c.ID, p.cfg.LossPoints),
		})
	}

	report.Duration = time.Since(start)
	metrics.RecordSettlement("settled", report.Duration.Seconds())
	p.audit.LogSettlement(c.ID, c.PrizePool, report.Winners, report.Losers, report.PayoutsFailed)
	entry.WithFields(logrus.Fields{
		"winners":        report.Winners,
		"losers":         report.Losers,
		"payouts_failed": report.PayoutsFailed,
		"missing_ranks":  len(report.MissingRanks),
		"duration_ms":    report.Duration.Milliseconds(),
	}).Info("Competition settled")

	return report, nil
}

func (p *Pipeline) skip(report *Report, start time.Time) *Report {
	report.Skipped = true
	report.Duration = time.Since(start)
	metrics.RecordSettlement("skipped", report.Duration.Seconds())
	return report
}

// payout credits every winner its share, continuing past individual failures
func (p *Pipeline) payout(ctx context.Context, c *models.Competition) []Payout {
	shares := Split(c.PrizePool, len(c.Winners))
	payouts := make([]Payout, len(c.Winners))

	for i, userID := range c.Winners {
		po := Payout{UserID: userID, Amount: shares[i], Reference: PayoutReference(c.ID, userID)}

		if po.Amount.IsPositive() {
			po.Err = p.wallet.Credit(ctx, userID, po.Amount, po.Reference)
		}
		amount, _ := po.Amount.Float64()

		switch {
		case po.Err != nil:
			metrics.RecordPayout("failed", amount)
			p.audit.LogPayoutFailed(c.ID, userID, po.Amount, po.Err)
		case po.Amount.IsPositive():
			metrics.RecordPayout("credited", amount)
			p.audit.LogPayout(c.ID, userID, po.Amount, po.Reference)
			p.notifier.Notify(ctx, notification.Notification{
				UserID:  userID,
				Type:    notification.TypePayout,
				Title:   "You won!",
				Message: fmt.Sprintf("%s has been credited to your wallet.", po.Amount.StringFixed(2)),
			})
		default:
			metrics.RecordPayout("empty", 0)
		}

		payouts[i] = po
	}
	return payouts
}
