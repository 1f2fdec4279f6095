package achievement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourusername/stakeleague/internal/models"
)

// Subject is what a rule is evaluated against: a user and, for competition rules, the competition
type Subject struct {
	UserID      uuid.UUID
	Competition *models.Competition
}

// Rule decides whether a subject earns an achievement
type Rule struct {
	Name     models.AchievementName
	Eligible func(ctx context.Context, s Subject) (bool, error)
}

// winnerRules are evaluated for every winner after a settlement
func (e *Engine) winnerRules() []Rule {
	return []Rule{
		{Name: models.AchievementFirstWin, Eligible: e.firstWin},
		{Name: models.AchievementThreeWinStreak, Eligible: e.winStreak},
		{Name: models.AchievementOddMaster, Eligible: e.oddMaster},
		{Name: models.AchievementTopPredictor, Eligible: topPredictor},
	}
}

// hostRules are evaluated for the creator of a new competition
func (e *Engine) hostRules() []Rule {
	return []Rule{
		{Name: models.AchievementHighRoller, Eligible: e.highRoller},
		{Name: models.AchievementRiskTaker, Eligible: e.riskTaker},
	}
}

func (e *Engine) firstWin(ctx context.Context, s Subject) (bool, error) {
	rank, err := e.ranks.GetByUserID(ctx, s.UserID)
	if err != nil {
		return false, err
	}
	return rank.TotalWins >= 1, nil
}

func (e *Engine) winStreak(ctx context.Context, s Subject) (bool, error) {
	rank, err := e.ranks.GetByUserID(ctx, s.UserID)
	if err != nil {
		return false, err
	}
	return rank.WinningStreak >= e.cfg.StreakTarget, nil
}

func (e *Engine) oddMaster(_ context.Context, s Subject) (bool, error) {
	c := s.Competition
	return len(c.Winners) == 1 &&
		c.Winners[0] == s.UserID &&
		len(c.Participants) >= e.cfg.OddMasterMinParticipants, nil
}

func topPredictor(_ context.Context, s Subject) (bool, error) {
	return s.Competition.Type == models.CompetitionTypeLeague && s.Competition.IsWinner(s.UserID), nil
}

func (e *Engine) highRoller(ctx context.Context, s Subject) (bool, error) {
	start, end := dayWindow(s.Competition.CreatedAt)
	total, err := e.competitions.SumHostContributionsBetween(ctx, s.UserID, start, end)
	if err != nil {
		return false, err
	}

	converted, err := e.fx.Convert(ctx, total)
	if err != nil {
		return false, fmt.Errorf("failed to convert contributions: %w", err)
	}
	return converted.GreaterThan(decimal.NewFromFloat(e.cfg.HighRollerThreshold)), nil
}

func (e *Engine) riskTaker(ctx context.Context, s Subject) (bool, error) {
	start, end := weekWindow(s.Competition.CreatedAt)
	count, err := e.competitions.CountCreatedBetween(ctx, s.UserID, start, end)
	if err != nil {
		return false, err
	}
	return count >= e.cfg.RiskTakerMinCompetitions, nil
}

// dayWindow returns the UTC calendar day containing t as [start, end)
func dayWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// weekWindow returns the Monday-to-Sunday UTC week containing t as [start, end)
func weekWindow(t time.Time) (time.Time, time.Time) {
	day, _ := dayWindow(t)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}
