package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/stakeleague/internal/database"
	"github.com/yourusername/stakeleague/internal/models"
)

// PostgresAchievementRepository implements AchievementRepository for PostgreSQL
type PostgresAchievementRepository struct {
	db *database.DB
}

// NewPostgresAchievementRepository creates a new achievement repository
func NewPostgresAchievementRepository(db *database.DB) AchievementRepository {
	return &PostgresAchievementRepository{db: db}
}

// Grant inserts the achievement behind the (user_id, name) guard and credits the rank.
// A conflicting insert is the "already granted" no-op.
func (r *PostgresAchievementRepository) Grant(ctx context.Context, a *models.Achievement) (bool, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	granted := false
	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)

		tag, err := conn.Exec(ctx, `
			INSERT INTO achievements (id, user_id, name, description, points, competition_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (user_id, name) WHERE name <> 'CommunityStar' DO NOTHING`,
			a.ID, a.UserID, a.Name, a.Description, a.Points, a.CompetitionID, a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert achievement: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		tag, err = conn.Exec(ctx, `
			UPDATE ranks SET
				points = points + $2,
				first_win = first_win OR $3,
				updated_at = $4
			WHERE user_id = $1`,
			a.UserID, a.Points, a.Name == models.AchievementFirstWin, a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to credit achievement points: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("rank for user %s: %w", a.UserID, models.ErrNotFound)
		}

		granted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return granted, nil
}

// Has reports whether the user already holds the achievement
func (r *PostgresAchievementRepository) Has(ctx context.Context, userID uuid.UUID, name models.AchievementName) (bool, error) {
	var exists bool
	err := r.db.Conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM achievements WHERE user_id = $1 AND name = $2)`, userID, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check achievement: %w", err)
	}
	return exists, nil
}

// ListByUser returns a user's achievements, newest first
func (r *PostgresAchievementRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Achievement, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, `
		SELECT id, user_id, name, description, points, competition_id, created_at
		FROM achievements WHERE user_id = $1
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}

	achievements, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Achievement, error) {
		a := &models.Achievement{}
		err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &a.Points, &a.CompetitionID, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan achievements: %w", err)
	}
	return achievements, nil
}
