// Package competition validates joins, stake entries and proofs, and owns the competition
// lifecycle up to the point where settlement takes over.
package competition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/config"
	"github.com/yourusername/stakeleague/internal/logger"
	"github.com/yourusername/stakeleague/internal/models"
	"github.com/yourusername/stakeleague/internal/repository"
	"github.com/yourusername/stakeleague/internal/wallet"
)

// Publisher enqueues the follow-up work triggered by lifecycle events.
// Implementations join the caller's transaction when the context carries one.
type Publisher interface {
	EnqueueCompetitionCreated(ctx context.Context, competitionID uuid.UUID) error
	EnqueueSettlement(ctx context.Context, competitionID uuid.UUID) error
	EnqueueDepositRecorded(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	EnqueueUserRegistered(ctx context.Context, userID uuid.UUID, country string) error
}

// Service is the join validator and competition lifecycle entry point
type Service struct {
	tx           repository.Transactor
	competitions repository.CompetitionRepository
	selections   repository.TeamSelectionRepository
	wallet       wallet.Wallet
	publisher    Publisher
	cfg          config.CompetitionConfig
	validate     *validator.Validate
	audit        *logger.AuditLogger
	logger       *logrus.Logger
	now          func() time.Time
	newID        func() uuid.UUID
}

// NewService creates a competition service
func NewService(
	repos *repository.Repositories,
	w wallet.Wallet,
	publisher Publisher,
	cfg config.CompetitionConfig,
	log *logrus.Logger,
) *Service {
	return &Service{
		tx:           repos.Tx,
		competitions: repos.Competition,
		selections:   repos.TeamSelection,
		wallet:       w,
		publisher:    publisher,
		cfg:          cfg,
		validate:     validator.New(),
		audit:        logger.NewAuditLogger(log),
		logger:       log,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.New,
	}
}

// CreateRequest describes a new competition
type CreateRequest struct {
	Type             models.CompetitionType `validate:"required,oneof=TopScore ManGoSet League"`
	CreatorID        uuid.UUID              `validate:"required"`
	RequiredTeams    int                    `validate:"gte=0"`
	MinTeams         int                    `validate:"gte=1"`
	MaxTeams         int                    `validate:"gtefield=MinTeams"`
	ParticipantCap   int                    `validate:"gte=0"`
	PrizePool        decimal.Decimal
	HostContribution decimal.Decimal
	IsPublic         bool
}

// Create persists an active competition and enqueues the host achievement checks
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Competition, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, reject(ReasonInvalidRequest, err)
	}
	if req.PrizePool.IsNegative() || req.HostContribution.IsNegative() {
		return nil, reject(ReasonInvalidRequest, errors.New("amounts must not be negative"))
	}
	if !req.PrizePool.Equal(req.PrizePool.Truncate(2)) {
		return nil, reject(ReasonInvalidRequest, errors.New("prize pool must be in whole cents"))
	}

	now := s.now()
	c := &models.Competition{
		ID:               uuid.New(),
		Type:             req.Type,
		CreatorID:        req.CreatorID,
		RequiredTeams:    req.RequiredTeams,
		MinTeams:         req.MinTeams,
		MaxTeams:         req.MaxTeams,
		ParticipantCap:   req.ParticipantCap,
		PrizePool:        req.PrizePool,
		HostContribution: req.HostContribution,
		IsActive:         true,
		IsPublic:         req.IsPublic,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.competitions.Create(ctx, c); err != nil {
			return err
		}
		return s.publisher.EnqueueCompetitionCreated(ctx, c.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"competition_id": c.ID.String(),
		"type":           c.Type,
		"creator_id":     c.CreatorID.String(),
		"prize_pool":     c.PrizePool.StringFixed(2),
	}).Info("Competition created")

	return c, nil
}

// Finalize records the winners decided upstream and enqueues settlement.
// Winners must be distinct participants; their order drives remainder distribution.
func (s *Service) Finalize(ctx context.Context, competitionID uuid.UUID, winners []uuid.UUID) error {
	if len(winners) == 0 {
		return reject(ReasonInvalidRequest, errors.New("at least one winner is required"))
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.competitions.GetByID(ctx, competitionID)
		if err != nil {
			return err
		}
		if c.IsSettled() {
			return models.ErrAlreadySettled
		}

		seen := make(map[uuid.UUID]struct{}, len(winners))
		for _, w := range winners {
			if _, dup := seen[w]; dup {
				return reject(ReasonInvalidRequest, fmt.Errorf("winner %s listed twice", w))
			}
			seen[w] = struct{}{}
			if c.Participant(w) == nil {
				return reject(ReasonInvalidRequest, fmt.Errorf("winner %s is not a participant", w))
			}
		}

		if err := s.competitions.SetWinners(ctx, competitionID, winners); err != nil {
			return err
		}
		return s.publisher.EnqueueSettlement(ctx, competitionID)
	})
	if err != nil {
		return fmt.Errorf("failed to finalize competition %s: %w", competitionID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"competition_id": competitionID.String(),
		"winners":        len(winners),
	}).Info("Competition finalized, settlement enqueued")
	return nil
}

// RecordDeposit enqueues the deposit achievement check for a wallet top-up
func (s *Service) RecordDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	if userID == uuid.Nil || !amount.IsPositive() {
		return reject(ReasonInvalidRequest, errors.New("deposit needs a user and a positive amount"))
	}
	if err := s.publisher.EnqueueDepositRecorded(ctx, userID, amount); err != nil {
		return fmt.Errorf("failed to record deposit: %w", err)
	}
	return nil
}

type registration struct {
	UserID  uuid.UUID `validate:"required"`
	Country string    `validate:"required,iso3166_1_alpha2"`
}

// RegisterUser enqueues rank seeding for a new user
func (s *Service) RegisterUser(ctx context.Context, userID uuid.UUID, country string) error {
	if err := s.validate.Struct(registration{UserID: userID, Country: country}); err != nil {
		return reject(ReasonInvalidRequest, err)
	}
	if err := s.publisher.EnqueueUserRegistered(ctx, userID, country); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}
