package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yourusername/stakeleague/internal/database"
)

const uniqueViolation = "23505"

// Repositories holds all repository implementations
type Repositories struct {
	Tx            Transactor
	Competition   CompetitionRepository
	TeamSelection TeamSelectionRepository
	Rank          RankRepository
	Settlement    SettlementRepository
	Achievement   AchievementRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Tx:            db,
		Competition:   NewPostgresCompetitionRepository(db),
		TeamSelection: NewPostgresTeamSelectionRepository(db),
		Rank:          NewPostgresRankRepository(db),
		Settlement:    NewPostgresSettlementRepository(db),
		Achievement:   NewPostgresAchievementRepository(db),
	}, nil
}

// isUniqueViolation reports a 23505 error, optionally restricted to one constraint
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
