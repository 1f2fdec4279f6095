package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is one of the per-competition-type rank sub-tables
type Category string

const (
	CategoryTopScore Category = "topScore"
	CategoryManGoSet Category = "manGoSet"
	CategoryLeague   Category = "league"
)

// Categories lists every category in a fixed order
var Categories = []Category{CategoryTopScore, CategoryManGoSet, CategoryLeague}

// Column returns the snake_case column prefix used for the category in the ranks table
func (c Category) Column() string {
	switch c {
	case CategoryTopScore:
		return "top_score"
	case CategoryManGoSet:
		return "man_go_set"
	case CategoryLeague:
		return "league"
	default:
		return ""
	}
}

// Trend is the direction a position moved between two recalculations
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// TrendFor compares a freshly computed position against the previously stored one.
// Lower positions are better.
func TrendFor(previous, current int) Trend {
	switch {
	case current < previous:
		return TrendUp
	case current > previous:
		return TrendDown
	default:
		return TrendStable
	}
}

// Standing is a position plus its trend within one scope
type Standing struct {
	Position int   `json:"position"`
	Trend    Trend `json:"trend"`
}

// CountryStanding is a standing within a single country
type CountryStanding struct {
	Country string `json:"country"`
	Standing
}

// CategoryRank is the rank sub-record for one competition category
type CategoryRank struct {
	Points        int             `json:"points"`
	Wins          int             `json:"wins"`
	WinningStreak int             `json:"winning_streak"`
	WorldRank     Standing        `json:"world_rank"`
	CountryRank   CountryStanding `json:"country_rank"`
}

// Rank is a user's persistent standing record
type Rank struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        uuid.UUID       `db:"user_id" json:"user_id" validate:"required"`
	Points        int             `db:"points" json:"points"`
	WinningStreak int             `db:"winning_streak" json:"winning_streak"`
	TotalWins     int             `db:"total_wins" json:"total_wins"`
	FirstWin      bool            `db:"first_win" json:"first_win"`
	WorldRank     Standing        `json:"world_rank"`
	CountryRank   CountryStanding `json:"country_rank"`
	TopScoreRank  CategoryRank    `json:"top_score_rank"`
	ManGoSetRank  CategoryRank    `json:"man_go_set_rank"`
	LeagueRank    CategoryRank    `json:"league_rank"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Category returns a pointer to the sub-rank for c
func (r *Rank) Category(c Category) *CategoryRank {
	switch c {
	case CategoryTopScore:
		return &r.TopScoreRank
	case CategoryManGoSet:
		return &r.ManGoSetRank
	case CategoryLeague:
		return &r.LeagueRank
	default:
		return nil
	}
}

// NewSeededRank builds the record created at signup, placed last in both scopes
func NewSeededRank(userID uuid.UUID, country string, worldPosition, countryPosition int, now time.Time) *Rank {
	world := Standing{Position: worldPosition, Trend: TrendStable}
	local := CountryStanding{Country: country, Standing: Standing{Position: countryPosition, Trend: TrendStable}}
	sub := CategoryRank{WorldRank: world, CountryRank: local}

	return &Rank{
		ID:           uuid.New(),
		UserID:       userID,
		WorldRank:    world,
		CountryRank:  local,
		TopScoreRank: sub,
		ManGoSetRank: sub,
		LeagueRank:   sub,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ScopePositions holds the recomputed world and country standings for one scope
type ScopePositions struct {
	World   Standing `json:"world"`
	Country Standing `json:"country"`
}

// RankPositions is the field-scoped write produced by a recalculation pass.
// It carries positions and trends only, never points.
type RankPositions struct {
	UserID   uuid.UUID      `json:"user_id"`
	Overall  ScopePositions `json:"overall"`
	TopScore ScopePositions `json:"top_score"`
	ManGoSet ScopePositions `json:"man_go_set"`
	League   ScopePositions `json:"league"`
}

// Apply copies the positions onto r without touching any points field
func (p *RankPositions) Apply(r *Rank) {
	r.WorldRank = p.Overall.World
	r.CountryRank.Standing = p.Overall.Country
	r.TopScoreRank.WorldRank = p.TopScore.World
	r.TopScoreRank.CountryRank.Standing = p.TopScore.Country
	r.ManGoSetRank.WorldRank = p.ManGoSet.World
	r.ManGoSetRank.CountryRank.Standing = p.ManGoSet.Country
	r.LeagueRank.WorldRank = p.League.World
	r.LeagueRank.CountryRank.Standing = p.League.Country
}

// Scope indexes the four independent orderings a recalculation produces
type Scope int

const (
	ScopeOverall Scope = iota
	ScopeTopScore
	ScopeManGoSet
	ScopeLeague
)

// ScopeCount is the number of orderings per rank record
const ScopeCount = 4

// Scopes lists every scope in column order
var Scopes = [ScopeCount]Scope{ScopeOverall, ScopeTopScore, ScopeManGoSet, ScopeLeague}

// ScopeFor maps a category onto its scope
func ScopeFor(c Category) Scope {
	switch c {
	case CategoryTopScore:
		return ScopeTopScore
	case CategoryManGoSet:
		return ScopeManGoSet
	default:
		return ScopeLeague
	}
}

func (s Scope) String() string {
	switch s {
	case ScopeOverall:
		return "overall"
	case ScopeTopScore:
		return "top_score"
	case ScopeManGoSet:
		return "man_go_set"
	case ScopeLeague:
		return "league"
	default:
		return "unknown"
	}
}

// RankSnapshot is the compact per-user row a recalculation reads.
// Arrays are indexed by Scope.
type RankSnapshot struct {
	UserID          uuid.UUID
	Points          [ScopeCount]int
	Country         [ScopeCount]string
	WorldPosition   [ScopeCount]int
	CountryPosition [ScopeCount]int
}

// Snapshot extracts the fields a recalculation needs from r
func (r *Rank) Snapshot() RankSnapshot {
	s := RankSnapshot{UserID: r.UserID}
	s.Points[ScopeOverall] = r.Points
	s.Country[ScopeOverall] = r.CountryRank.Country
	s.WorldPosition[ScopeOverall] = r.WorldRank.Position
	s.CountryPosition[ScopeOverall] = r.CountryRank.Position
	for _, c := range Categories {
		sub, scope := r.Category(c), ScopeFor(c)
		s.Points[scope] = sub.Points
		s.Country[scope] = sub.CountryRank.Country
		s.WorldPosition[scope] = sub.WorldRank.Position
		s.CountryPosition[scope] = sub.CountryRank.Position
	}
	return s
}

// Scope returns the positions for s
func (p *RankPositions) Scope(s Scope) *ScopePositions {
	switch s {
	case ScopeOverall:
		return &p.Overall
	case ScopeTopScore:
		return &p.TopScore
	case ScopeManGoSet:
		return &p.ManGoSet
	case ScopeLeague:
		return &p.League
	default:
		return nil
	}
}

// Changed reports whether any scope moved
func (p *RankPositions) Changed() bool {
	for _, s := range Scopes {
		sp := p.Scope(s)
		if sp.World.Trend != TrendStable || sp.Country.Trend != TrendStable {
			return true
		}
	}
	return false
}
