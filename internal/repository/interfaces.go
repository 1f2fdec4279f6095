package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourusername/stakeleague/internal/models"
)

// JoinCommit is the write performed once a join passed validation
type JoinCommit struct {
	CompetitionID uuid.UUID
	UserID        uuid.UUID
	Teams         []models.TeamPick
	StarTeam      string
	JoinedAt      time.Time
}

// StakeCommit is the write performed for a ManGoSet partial entry
type StakeCommit struct {
	CompetitionID uuid.UUID
	UserID        uuid.UUID
	Amount        decimal.Decimal
	EnteredAt     time.Time
}

// Transactor runs fn in one unit of work. Repository calls made with the derived context join it.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}

// CompetitionRepository defines the interface for competition data access
type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Competition, error)
	// SetWinners records the decided winners in order and closes the competition to joins
	SetWinners(ctx context.Context, id uuid.UUID, winners []uuid.UUID) error
	CountCreatedBetween(ctx context.Context, creatorID uuid.UUID, start, end time.Time) (int, error)
	SumHostContributionsBetween(ctx context.Context, creatorID uuid.UUID, start, end time.Time) (decimal.Decimal, error)
	// Join locks the competition row, re-checks capacity and upserts the selection and participant.
	// It returns models.ErrCapacityReached, models.ErrStarTaken or models.ErrCompetitionClosed.
	Join(ctx context.Context, commit JoinCommit) error
	// StakeEntry inserts a pending participant and a selection carrying the stake
	StakeEntry(ctx context.Context, commit StakeCommit) error
}

// TeamSelectionRepository defines the interface for team selection data access
type TeamSelectionRepository interface {
	Get(ctx context.Context, competitionID, userID uuid.UUID) (*models.TeamSelection, error)
	StarTaken(ctx context.Context, competitionID uuid.UUID, starTeam string, excludeUserID uuid.UUID) (bool, error)
	// SaveProofs upserts the proofs and stepsVerified flag, creating an empty selection if needed
	SaveProofs(ctx context.Context, selection *models.TeamSelection) error
}

// RankRepository defines the interface for rank data access
type RankRepository interface {
	// Seed creates the rank at the last position of both scopes. It reports false if the rank already existed.
	Seed(ctx context.Context, userID uuid.UUID, country string, now time.Time) (*models.Rank, bool, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Rank, error)
	// Scan returns up to limit snapshots with user id greater than after, ordered by user id
	Scan(ctx context.Context, after uuid.UUID, limit int) ([]models.RankSnapshot, error)
	// UpdatePositions writes positions and trends only, never points
	UpdatePositions(ctx context.Context, positions []models.RankPositions) (int64, error)
	Count(ctx context.Context) (int, error)
}

// SettlementRepository defines the atomic rank update applied when a competition settles
type SettlementRepository interface {
	// ApplyOutcome marks the competition settled and updates every participant's rank in one
	// transaction. It returns models.ErrAlreadySettled when the competition was settled before.
	// Participants that have no rank record are skipped and listed in outcome.MissingRanks.
	ApplyOutcome(ctx context.Context, outcome *models.SettlementOutcome) error
}

// AchievementRepository defines the interface for achievement data access
type AchievementRepository interface {
	// Grant records the achievement and credits its points in one transaction.
	// It reports false when a one-time achievement was already granted.
	Grant(ctx context.Context, achievement *models.Achievement) (bool, error)
	Has(ctx context.Context, userID uuid.UUID, name models.AchievementName) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Achievement, error)
}
