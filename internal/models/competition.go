package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompetitionType identifies one of the three contest variants
type CompetitionType string

const (
	CompetitionTypeTopScore CompetitionType = "TopScore"
	CompetitionTypeManGoSet CompetitionType = "ManGoSet"
	CompetitionTypeLeague   CompetitionType = "League"
)

// Valid reports whether t is a known competition type
func (t CompetitionType) Valid() bool {
	switch t {
	case CompetitionTypeTopScore, CompetitionTypeManGoSet, CompetitionTypeLeague:
		return true
	default:
		return false
	}
}

// Category returns the rank category a competition of this type feeds
func (t CompetitionType) Category() Category {
	switch t {
	case CompetitionTypeTopScore:
		return CategoryTopScore
	case CompetitionTypeManGoSet:
		return CategoryManGoSet
	default:
		return CategoryLeague
	}
}

// ParticipantStatus tracks how far a user got through joining
type ParticipantStatus string

const (
	ParticipantPending ParticipantStatus = "pending"
	ParticipantJoined  ParticipantStatus = "joined"
)

// Participant is a user's entry in a competition
type Participant struct {
	UserID   uuid.UUID         `db:"user_id" json:"user_id"`
	Status   ParticipantStatus `db:"status" json:"status" validate:"oneof=pending joined"`
	JoinedAt *time.Time        `db:"joined_at" json:"joined_at"`
}

// Competition represents a staked prediction contest
type Competition struct {
	ID               uuid.UUID       `db:"id" json:"id" validate:"required"`
	Type             CompetitionType `db:"type" json:"type" validate:"required,oneof=TopScore ManGoSet League"`
	CreatorID        uuid.UUID       `db:"creator_id" json:"creator_id" validate:"required"`
	RequiredTeams    int             `db:"required_teams" json:"required_teams" validate:"gte=0"`
	MinTeams         int             `db:"min_teams" json:"min_teams" validate:"gte=1"`
	MaxTeams         int             `db:"max_teams" json:"max_teams" validate:"gtefield=MinTeams"`
	ParticipantCap   int             `db:"participant_cap" json:"participant_cap" validate:"gte=0"`
	PrizePool        decimal.Decimal `db:"prize_pool" json:"prize_pool"`
	HostContribution decimal.Decimal `db:"host_contribution" json:"host_contribution"`
	IsActive         bool            `db:"is_active" json:"is_active"`
	IsPublic         bool            `db:"is_public" json:"is_public"`
	Participants     []Participant   `json:"participants"`
	Winners          []uuid.UUID     `json:"winners"`
	SettledAt        *time.Time      `db:"settled_at" json:"settled_at"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// IsCapped reports whether the competition limits its number of participants
func (c *Competition) IsCapped() bool {
	return c.ParticipantCap > 0
}

// IsSettled checks if settlement has already run for this competition
func (c *Competition) IsSettled() bool {
	return c.SettledAt != nil
}

// Participant returns the entry for userID, or nil when the user has not entered
func (c *Competition) Participant(userID uuid.UUID) *Participant {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// IsWinner reports whether userID is among the decided winners
func (c *Competition) IsWinner(userID uuid.UUID) bool {
	for _, w := range c.Winners {
		if w == userID {
			return true
		}
	}
	return false
}

// Losers returns every participant that is not a winner, in participant order
func (c *Competition) Losers() []uuid.UUID {
	losers := make([]uuid.UUID, 0, len(c.Participants))
	for _, p := range c.Participants {
		if !c.IsWinner(p.UserID) {
			losers = append(losers, p.UserID)
		}
	}
	return losers
}
