package queue

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Queue names
const (
	QueueSettlement = "settlement"
	QueueRanking    = "ranking"
)

// SettleCompetitionArgs settles a finalized competition
type SettleCompetitionArgs struct {
	CompetitionID uuid.UUID `json:"competition_id"`
}

// Kind returns the job type identifier for River
func (SettleCompetitionArgs) Kind() string { return "settle_competition" }

// CompetitionCreatedArgs evaluates the host achievements of a new competition
type CompetitionCreatedArgs struct {
	CompetitionID uuid.UUID `json:"competition_id"`
}

// Kind returns the job type identifier for River
func (CompetitionCreatedArgs) Kind() string { return "competition_created" }

// DepositRecordedArgs evaluates deposit achievements
type DepositRecordedArgs struct {
	UserID uuid.UUID       `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// Kind returns the job type identifier for River
func (DepositRecordedArgs) Kind() string { return "deposit_recorded" }

// UserRegisteredArgs seeds the rank of a new user
type UserRegisteredArgs struct {
	UserID  uuid.UUID `json:"user_id"`
	Country string    `json:"country"`
}

// Kind returns the job type identifier for River
func (UserRegisteredArgs) Kind() string { return "user_registered" }

// RecalculateRanksArgs runs a full rank recalculation
type RecalculateRanksArgs struct{}

// Kind returns the job type identifier for River
func (RecalculateRanksArgs) Kind() string { return "recalculate_ranks" }

// JobInfo represents information about a queued job
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	State       string `json:"state"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
	CreatedAt   string `json:"created_at"`
}
