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

// PostgresSettlementRepository implements SettlementRepository for PostgreSQL
type PostgresSettlementRepository struct {
	db *database.DB
}

// NewPostgresSettlementRepository creates a new settlement repository
func NewPostgresSettlementRepository(db *database.DB) SettlementRepository {
	return &PostgresSettlementRepository{db: db}
}

// ApplyOutcome sets the settled_at guard and issues the winner and loser updates as one batch.
// Participants without a rank row are reported in o.MissingRanks.
func (r *PostgresSettlementRepository) ApplyOutcome(ctx context.Context, o *models.SettlementOutcome) error {
	col := o.Category.Column()
	if col == "" {
		return fmt.Errorf("unknown rank category %q", o.Category)
	}

	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)

		tag, err := conn.Exec(ctx, `
			UPDATE competitions SET settled_at = $2, is_active = FALSE, updated_at = $2
			WHERE id = $1 AND settled_at IS NULL`, o.CompetitionID, o.SettledAt)
		if err != nil {
			return fmt.Errorf("failed to mark competition settled: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			err := conn.QueryRow(ctx, `SELECT TRUE FROM competitions WHERE id = $1`, o.CompetitionID).Scan(&exists)
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to check competition: %w", err)
			}
			return models.ErrAlreadySettled
		}

		batch := &pgx.Batch{}
		if len(o.Winners) > 0 {
			batch.Queue(fmt.Sprintf(`
				UPDATE ranks SET
					winning_streak = winning_streak + 1,
					total_wins = total_wins + 1,
					points = points + $2,
					%[1]s_wins = %[1]s_wins + 1,
					%[1]s_winning_streak = %[1]s_winning_streak + 1,
					%[1]s_points = %[1]s_points + $2,
					updated_at = $3
				WHERE user_id = ANY($1)
				RETURNING user_id`, col),
				o.Winners, o.WinPoints, o.SettledAt)
		}
		if len(o.Losers) > 0 {
			batch.Queue(fmt.Sprintf(`
				UPDATE ranks SET
					winning_streak = 0,
					points = points + $2,
					%[1]s_winning_streak = 0,
					%[1]s_points = %[1]s_points + $2,
					updated_at = $3
				WHERE user_id = ANY($1)
				RETURNING user_id`, col),
				o.Losers, o.LossPoints, o.SettledAt)
		}
		if batch.Len() == 0 {
			o.RecordMissing(nil)
			return nil
		}

		results := conn.SendBatch(ctx, batch)
		var updated []uuid.UUID
		for i := 0; i < batch.Len(); i++ {
			rows, err := results.Query()
			if err != nil {
				results.Close()
				return fmt.Errorf("failed to apply settlement rank updates: %w", err)
			}
			ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
			if err != nil {
				results.Close()
				return fmt.Errorf("failed to apply settlement rank updates: %w", err)
			}
			updated = append(updated, ids...)
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to apply settlement rank updates: %w", err)
		}

		o.RecordMissing(updated)
		return nil
	})
}
