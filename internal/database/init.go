package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/config"
)

// Initialize creates a database connection pool and checks that the schema has been applied
func Initialize(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	applied, err := SchemaApplied(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to inspect schema: %w", err)
	}
	if !applied {
		log.Warn("Database schema has not been applied; run 'stakectl migrate'")
	}

	return db, nil
}

// SchemaApplied reports whether the core tables exist
func SchemaApplied(ctx context.Context, db *DB) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx, "SELECT to_regclass('public.ranks') IS NOT NULL").Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
