// Package logger provides audit logging.
package logger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging for money movements and manual grants.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogPayout logs a prize credited to a winner.
func (al *AuditLogger) LogPayout(competitionID, userID uuid.UUID, amount decimal.Decimal, reference string) {
	al.WithFields(logrus.Fields{
		"competition_id": competitionID.String(),
		"user_id":        userID.String(),
		"amount":         amount.StringFixed(2),
		"reference":      reference,
	}).Info("Prize payout credited")
}

// LogPayoutFailed logs a payout that was skipped.
func (al *AuditLogger) LogPayoutFailed(competitionID, userID uuid.UUID, amount decimal.Decimal, err error) {
	al.WithFields(logrus.Fields{
		"competition_id": competitionID.String(),
		"user_id":        userID.String(),
		"amount":         amount.StringFixed(2),
	}).WithError(err).Error("Prize payout failed")
}

// LogStakeDebit logs a ManGoSet stake taken from a user's wallet.
func (al *AuditLogger) LogStakeDebit(competitionID, userID uuid.UUID, amount decimal.Decimal, reference string) {
	al.WithFields(logrus.Fields{
		"competition_id": competitionID.String(),
		"user_id":        userID.String(),
		"amount":         amount.StringFixed(2),
		"reference":      reference,
	}).Info("Stake debited")
}

// LogManualGrant logs an achievement awarded by an operator.
func (al *AuditLogger) LogManualGrant(userID uuid.UUID, achievement string, points int, grantedBy string) {
	al.WithFields(logrus.Fields{
		"user_id":     userID.String(),
		"achievement": achievement,
		"points":      points,
		"granted_by":  grantedBy,
	}).Info("Achievement granted manually")
}

// LogSettlement logs a competition that finished settling.
func (al *AuditLogger) LogSettlement(competitionID uuid.UUID, prizePool decimal.Decimal, winners, losers, payoutsFailed int) {
	al.WithFields(logrus.Fields{
		"competition_id": competitionID.String(),
		"prize_pool":     prizePool.StringFixed(2),
		"winners":        winners,
		"losers":         losers,
		"payouts_failed": payoutsFailed,
	}).Info("Competition settled")
}
