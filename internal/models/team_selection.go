package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TeamPick is a single fixture/team selected by a participant
type TeamPick struct {
	TeamID string `json:"team_id" validate:"required"`
	Name   string `json:"name"`
}

// TeamPoints holds the points a pick earned once fixtures resolved
type TeamPoints struct {
	TeamID string `json:"team_id"`
	Points int    `json:"points"`
}

// Proof is one verification step recorded for a TopScore entry
type Proof struct {
	StepID   string `json:"step_id" validate:"required"`
	URL      string `json:"url" validate:"required,url"`
	Verified bool   `json:"verified"`
}

// TeamSelection is a participant's picks for one competition
type TeamSelection struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	CompetitionID  uuid.UUID       `db:"competition_id" json:"competition_id" validate:"required"`
	UserID         uuid.UUID       `db:"user_id" json:"user_id" validate:"required"`
	Teams          []TeamPick      `db:"teams" json:"teams"`
	StarTeam       *string         `db:"star_team" json:"star_team"`
	TeamPoints     []TeamPoints    `db:"team_points" json:"team_points"`
	TotalPoints    int             `db:"total_points" json:"total_points"`
	StakedAmount   decimal.Decimal `db:"staked_amount" json:"staked_amount"`
	Proofs         []Proof         `db:"proofs" json:"proofs"`
	StepsVerified  bool            `db:"steps_verified" json:"steps_verified"`
	IsDisqualified bool            `db:"is_disqualified" json:"is_disqualified"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// HasTeam reports whether teamID is one of the selection's picks
func (s *TeamSelection) HasTeam(teamID string) bool {
	for _, t := range s.Teams {
		if t.TeamID == teamID {
			return true
		}
	}
	return false
}

// VerifiedSteps counts distinct proof steps that have been verified
func (s *TeamSelection) VerifiedSteps() int {
	seen := make(map[string]struct{}, len(s.Proofs))
	for _, p := range s.Proofs {
		if p.Verified {
			seen[p.StepID] = struct{}{}
		}
	}
	return len(seen)
}

// UpsertProof replaces the proof for the same step or appends a new one.
// A re-uploaded proof is unverified again.
func (s *TeamSelection) UpsertProof(p Proof) {
	for i := range s.Proofs {
		if s.Proofs[i].StepID == p.StepID {
			s.Proofs[i] = p
			return
		}
	}
	s.Proofs = append(s.Proofs, p)
}
