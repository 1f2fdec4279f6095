package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/stakeleague/internal/database"
	"github.com/yourusername/stakeleague/internal/models"
)

// PostgresTeamSelectionRepository implements TeamSelectionRepository for PostgreSQL
type PostgresTeamSelectionRepository struct {
	db *database.DB
}

// NewPostgresTeamSelectionRepository creates a new team selection repository
func NewPostgresTeamSelectionRepository(db *database.DB) TeamSelectionRepository {
	return &PostgresTeamSelectionRepository{db: db}
}

// Get retrieves the selection a user made for a competition
func (r *PostgresTeamSelectionRepository) Get(ctx context.Context, competitionID, userID uuid.UUID) (*models.TeamSelection, error) {
	query := `
		SELECT id, competition_id, user_id, teams, star_team, team_points, total_points, staked_amount,
		       proofs, steps_verified, is_disqualified, created_at, updated_at
		FROM team_selections WHERE competition_id = $1 AND user_id = $2
	`

	s := &models.TeamSelection{}
	err := r.db.Conn(ctx).QueryRow(ctx, query, competitionID, userID).Scan(
		&s.ID, &s.CompetitionID, &s.UserID, &s.Teams, &s.StarTeam, &s.TeamPoints, &s.TotalPoints, &s.StakedAmount,
		&s.Proofs, &s.StepsVerified, &s.IsDisqualified, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team selection: %w", err)
	}

	return s, nil
}

// StarTaken reports whether another user in the competition already holds starTeam
func (r *PostgresTeamSelectionRepository) StarTaken(ctx context.Context, competitionID uuid.UUID, starTeam string, excludeUserID uuid.UUID) (bool, error) {
	var taken bool
	err := r.db.Conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM team_selections
			WHERE competition_id = $1 AND star_team = $2 AND user_id <> $3
		)`, competitionID, starTeam, excludeUserID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check star team: %w", err)
	}
	return taken, nil
}

// SaveProofs upserts the proof list and verification flag
func (r *PostgresTeamSelectionRepository) SaveProofs(ctx context.Context, s *models.TeamSelection) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	_, err := r.db.Conn(ctx).Exec(ctx, `
		INSERT INTO team_selections (id, competition_id, user_id, proofs, steps_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (competition_id, user_id) DO UPDATE SET
			proofs = EXCLUDED.proofs,
			steps_verified = EXCLUDED.steps_verified,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.CompetitionID, s.UserID, s.Proofs, s.StepsVerified, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save proofs: %w", err)
	}
	return nil
}
