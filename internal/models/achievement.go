package models

import (
	"time"

	"github.com/google/uuid"
)

// AchievementName identifies a reward rule
type AchievementName string

const (
	AchievementFirstWin       AchievementName = "FirstWin"
	AchievementThreeWinStreak AchievementName = "ThreeWinStreak"
	AchievementOddMaster      AchievementName = "OddMaster"
	AchievementTopPredictor   AchievementName = "TopPredictor"
	AchievementHighRoller     AchievementName = "HighRoller"
	AchievementRiskTaker      AchievementName = "RiskTaker"
	AchievementRookie         AchievementName = "Rookie"
	AchievementCommunityStar  AchievementName = "CommunityStar"
)

// Repeatable reports whether the achievement may be granted more than once per user.
// Everything except CommunityStar is a one-time reward.
func (n AchievementName) Repeatable() bool {
	return n == AchievementCommunityStar
}

// Achievement is an append-only record of a granted reward
type Achievement struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        uuid.UUID       `db:"user_id" json:"user_id" validate:"required"`
	Name          AchievementName `db:"name" json:"name" validate:"required"`
	Description   string          `db:"description" json:"description"`
	Points        int             `db:"points" json:"points" validate:"gte=0"`
	CompetitionID *uuid.UUID      `db:"competition_id" json:"competition_id"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
