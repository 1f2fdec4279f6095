package competition

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/metrics"
	"github.com/yourusername/stakeleague/internal/models"
	"github.com/yourusername/stakeleague/internal/repository"
	"github.com/yourusername/stakeleague/internal/wallet"
)

// StakeRequest is a ManGoSet partial entry: the stake is taken now, teams come later
type StakeRequest struct {
	CompetitionID uuid.UUID `validate:"required"`
	UserID        uuid.UUID `validate:"required"`
	Amount        decimal.Decimal
}

// stakeReference keys one stake attempt. Every attempt debits under its own reference,
// so a refunded attempt never deduplicates the debit of a later one.
func stakeReference(competitionID, userID, attemptID uuid.UUID) string {
	return fmt.Sprintf("stake:%s:%s:%s", competitionID, userID, attemptID)
}

// refundReference keys the credit that reverses the attempt's debit
func refundReference(competitionID, userID, attemptID uuid.UUID) string {
	return fmt.Sprintf("stake-refund:%s:%s:%s", competitionID, userID, attemptID)
}

// StakeEntry debits the stake and records a pending participant carrying it.
// If the entry cannot be committed after the debit, the stake is credited back.
func (s *Service) StakeEntry(ctx context.Context, req StakeRequest) error {
	err := s.stakeEntry(ctx, req)

	result := "accepted"
	var je *JoinError
	if errors.As(err, &je) {
		result = string(je.Reason)
	} else if err != nil {
		result = string(ReasonInternal)
	}
	metrics.RecordStakeEntry(result)

	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"competition_id": req.CompetitionID.String(),
			"user_id":        req.UserID.String(),
			"result":         result,
		}).WithError(err).Info("Stake entry rejected")
	}
	return err
}

func (s *Service) stakeEntry(ctx context.Context, req StakeRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return reject(ReasonInvalidRequest, err)
	}
	if !req.Amount.IsPositive() {
		return reject(ReasonInvalidRequest, errors.New("stake must be positive"))
	}

	c, err := s.activeCompetition(ctx, req.CompetitionID)
	if err != nil {
		return err
	}
	if c.Type != models.CompetitionTypeManGoSet {
		return reject(ReasonWrongCompetitionType, fmt.Errorf("stake entry is not available for %s", c.Type))
	}
	if c.Participant(req.UserID) != nil {
		return ErrAlreadyEntered
	}
	if c.IsCapped() && len(c.Participants) >= c.ParticipantCap {
		return ErrCapacityExceeded
	}

	attemptID := s.newID()
	ref := stakeReference(c.ID, req.UserID, attemptID)
	if err := s.wallet.Debit(ctx, req.UserID, req.Amount, ref); err != nil {
		if errors.Is(err, wallet.ErrInsufficientBalance) {
			return reject(ReasonInsufficientBalance, err)
		}
		return reject(ReasonInternal, err)
	}
	s.audit.LogStakeDebit(c.ID, req.UserID, req.Amount, ref)

	err = s.competitions.StakeEntry(ctx, repository.StakeCommit{
		CompetitionID: c.ID,
		UserID:        req.UserID,
		Amount:        req.Amount,
		EnteredAt:     s.now(),
	})
	if err == nil {
		return nil
	}

	if refundErr := s.wallet.Credit(ctx, req.UserID, req.Amount, refundReference(c.ID, req.UserID, attemptID)); refundErr != nil {
		s.audit.WithFields(logrus.Fields{
			"competition_id": c.ID.String(),
			"user_id":        req.UserID.String(),
			"amount":         req.Amount.StringFixed(2),
			"reference":      ref,
		}).WithError(refundErr).Error("Stake refund failed, manual correction required")
	} else {
		s.audit.WithFields(logrus.Fields{
			"competition_id": c.ID.String(),
			"user_id":        req.UserID.String(),
			"amount":         req.Amount.StringFixed(2),
			"reference":      ref,
		}).Warn("Stake refunded after failed entry")
	}

	return commitError(err)
}
