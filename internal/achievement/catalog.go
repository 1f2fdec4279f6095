package achievement

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/stakeleague/internal/models"
)

// Definition describes the reward attached to an achievement
type Definition struct {
	Name        models.AchievementName
	Points      int
	Description string
}

var catalog = map[models.AchievementName]Definition{
	models.AchievementFirstWin:       {models.AchievementFirstWin, 10, "Won a competition for the first time"},
	models.AchievementThreeWinStreak: {models.AchievementThreeWinStreak, 30, "Won three competitions in a row"},
	models.AchievementOddMaster:      {models.AchievementOddMaster, 50, "Sole winner of a competition against the odds"},
	models.AchievementTopPredictor:   {models.AchievementTopPredictor, 25, "Won a League competition"},
	models.AchievementHighRoller:     {models.AchievementHighRoller, 40, "Contributed heavily to prize pools in a single day"},
	models.AchievementRiskTaker:      {models.AchievementRiskTaker, 20, "Hosted many competitions in one week"},
	models.AchievementRookie:         {models.AchievementRookie, 5, "Made a first deposit"},
	models.AchievementCommunityStar:  {models.AchievementCommunityStar, 15, "Recognised by the community team"},
}

// Lookup returns the definition for name
func Lookup(name models.AchievementName) (Definition, bool) {
	d, ok := catalog[name]
	return d, ok
}

// Achievement builds the record granted to userID
func (d Definition) Achievement(userID uuid.UUID, competitionID *uuid.UUID, now time.Time) *models.Achievement {
	return &models.Achievement{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          d.Name,
		Description:   d.Description,
		Points:        d.Points,
		CompetitionID: competitionID,
		CreatedAt:     now,
	}
}
