package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yourusername/stakeleague/internal/database"
	"github.com/yourusername/stakeleague/internal/models"
)

const starTeamConstraint = "team_selections_star_team_key"

// PostgresCompetitionRepository implements CompetitionRepository for PostgreSQL
type PostgresCompetitionRepository struct {
	db *database.DB
}

// NewPostgresCompetitionRepository creates a new competition repository
func NewPostgresCompetitionRepository(db *database.DB) CompetitionRepository {
	return &PostgresCompetitionRepository{db: db}
}

// Create inserts a new competition
func (r *PostgresCompetitionRepository) Create(ctx context.Context, c *models.Competition) error {
	query := `
		INSERT INTO competitions (id, type, creator_id, required_teams, min_teams, max_teams,
		                          participant_cap, prize_pool, host_contribution, is_active, is_public,
		                          created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Conn(ctx).Exec(ctx, query,
		c.ID, c.Type, c.CreatorID, c.RequiredTeams, c.MinTeams, c.MaxTeams,
		c.ParticipantCap, c.PrizePool, c.HostContribution, c.IsActive, c.IsPublic,
		c.CreatedAt, c.UpdatedAt,
	)
	if isUniqueViolation(err, "") {
		return models.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to create competition: %w", err)
	}

	return nil
}

// GetByID retrieves a competition with its participants and ordered winners
func (r *PostgresCompetitionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Competition, error) {
	query := `
		SELECT id, type, creator_id, required_teams, min_teams, max_teams, participant_cap,
		       prize_pool, host_contribution, is_active, is_public, settled_at, created_at, updated_at
		FROM competitions WHERE id = $1
	`

	conn := r.db.Conn(ctx)
	c := &models.Competition{}
	err := conn.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Type, &c.CreatorID, &c.RequiredTeams, &c.MinTeams, &c.MaxTeams, &c.ParticipantCap,
		&c.PrizePool, &c.HostContribution, &c.IsActive, &c.IsPublic, &c.SettledAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT user_id, status, joined_at FROM competition_participants
		WHERE competition_id = $1 ORDER BY created_at, user_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	c.Participants, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Participant, error) {
		var p models.Participant
		err := row.Scan(&p.UserID, &p.Status, &p.JoinedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan participants: %w", err)
	}

	rows, err = conn.Query(ctx, `
		SELECT user_id FROM competition_winners WHERE competition_id = $1 ORDER BY ordinal`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query winners: %w", err)
	}
	c.Winners, err = pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan winners: %w", err)
	}

	return c, nil
}

// SetWinners replaces the winners of an unsettled competition and deactivates it
func (r *PostgresCompetitionRepository) SetWinners(ctx context.Context, id uuid.UUID, winners []uuid.UUID) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)

		var settledAt *time.Time
		err := conn.QueryRow(ctx, `SELECT settled_at FROM competitions WHERE id = $1 FOR UPDATE`, id).Scan(&settledAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock competition: %w", err)
		}
		if settledAt != nil {
			return models.ErrAlreadySettled
		}

		if _, err := conn.Exec(ctx, `DELETE FROM competition_winners WHERE competition_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear winners: %w", err)
		}

		batch := &pgx.Batch{}
		for i, userID := range winners {
			batch.Queue(`INSERT INTO competition_winners (competition_id, user_id, ordinal) VALUES ($1, $2, $3)`,
				id, userID, i)
		}
		batch.Queue(`UPDATE competitions SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
		if err := conn.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to record winners: %w", err)
		}

		return nil
	})
}

// CountCreatedBetween counts competitions a user created in [start, end)
func (r *PostgresCompetitionRepository) CountCreatedBetween(ctx context.Context, creatorID uuid.UUID, start, end time.Time) (int, error) {
	var count int
	err := r.db.Conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM competitions
		WHERE creator_id = $1 AND created_at >= $2 AND created_at < $3`,
		creatorID, start, end,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count competitions: %w", err)
	}
	return count, nil
}

// SumHostContributionsBetween totals a user's host contributions in [start, end)
func (r *PostgresCompetitionRepository) SumHostContributionsBetween(ctx context.Context, creatorID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(host_contribution), 0) FROM competitions
		WHERE creator_id = $1 AND created_at >= $2 AND created_at < $3`,
		creatorID, start, end,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum host contributions: %w", err)
	}
	return total, nil
}

// lockForEntry locks the competition row and checks it can take userID.
// It returns whether the user is already a participant.
func (r *PostgresCompetitionRepository) lockForEntry(ctx context.Context, conn database.Querier, competitionID, userID uuid.UUID) (bool, error) {
	var (
		active   bool
		capacity int
	)
	err := conn.QueryRow(ctx,
		`SELECT is_active, participant_cap FROM competitions WHERE id = $1 FOR UPDATE`, competitionID,
	).Scan(&active, &capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, models.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock competition: %w", err)
	}
	if !active {
		return false, models.ErrCompetitionClosed
	}

	var count int
	var existing bool
	err = conn.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(BOOL_OR(user_id = $2), FALSE)
		FROM competition_participants WHERE competition_id = $1`,
		competitionID, userID,
	).Scan(&count, &existing)
	if err != nil {
		return false, fmt.Errorf("failed to count participants: %w", err)
	}

	if capacity > 0 && !existing && count >= capacity {
		return false, models.ErrCapacityReached
	}
	return existing, nil
}

// Join commits a validated selection and marks the participant joined
func (r *PostgresCompetitionRepository) Join(ctx context.Context, commit JoinCommit) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)

		if _, err := r.lockForEntry(ctx, conn, commit.CompetitionID, commit.UserID); err != nil {
			return err
		}

		teamPoints := make([]models.TeamPoints, len(commit.Teams))
		for i, t := range commit.Teams {
			teamPoints[i] = models.TeamPoints{TeamID: t.TeamID}
		}

		_, err := conn.Exec(ctx, `
			INSERT INTO team_selections (id, competition_id, user_id, teams, star_team, team_points,
			                             total_points, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $7)
			ON CONFLICT (competition_id, user_id) DO UPDATE SET
				teams = EXCLUDED.teams,
				star_team = EXCLUDED.star_team,
				team_points = EXCLUDED.team_points,
				total_points = 0,
				updated_at = EXCLUDED.updated_at`,
			uuid.New(), commit.CompetitionID, commit.UserID, commit.Teams, commit.StarTeam, teamPoints, commit.JoinedAt,
		)
		if isUniqueViolation(err, starTeamConstraint) {
			return models.ErrStarTaken
		}
		if err != nil {
			return fmt.Errorf("failed to upsert team selection: %w", err)
		}

		_, err = conn.Exec(ctx, `
			INSERT INTO competition_participants (competition_id, user_id, status, joined_at, created_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (competition_id, user_id) DO UPDATE SET
				status = EXCLUDED.status,
				joined_at = EXCLUDED.joined_at`,
			commit.CompetitionID, commit.UserID, models.ParticipantJoined, commit.JoinedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert participant: %w", err)
		}

		_, err = conn.Exec(ctx, `UPDATE competitions SET updated_at = $2 WHERE id = $1`, commit.CompetitionID, commit.JoinedAt)
		if err != nil {
			return fmt.Errorf("failed to touch competition: %w", err)
		}
		return nil
	})
}

// StakeEntry records a pending ManGoSet entry with its stake
func (r *PostgresCompetitionRepository) StakeEntry(ctx context.Context, commit StakeCommit) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)

		existing, err := r.lockForEntry(ctx, conn, commit.CompetitionID, commit.UserID)
		if err != nil {
			return err
		}
		if existing {
			return models.ErrDuplicateKey
		}

		batch := &pgx.Batch{}
		batch.Queue(`
			INSERT INTO competition_participants (competition_id, user_id, status, joined_at, created_at)
			VALUES ($1, $2, $3, NULL, $4)`,
			commit.CompetitionID, commit.UserID, models.ParticipantPending, commit.EnteredAt)
		batch.Queue(`
			INSERT INTO team_selections (id, competition_id, user_id, staked_amount, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (competition_id, user_id) DO UPDATE SET
				staked_amount = EXCLUDED.staked_amount,
				updated_at = EXCLUDED.updated_at`,
			uuid.New(), commit.CompetitionID, commit.UserID, commit.Amount, commit.EnteredAt)
		if err := conn.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to record stake entry: %w", err)
		}
		return nil
	})
}
