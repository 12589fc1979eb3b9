package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS usage_counters (
		key TEXT PRIMARY KEY,
		minute_count INTEGER NOT NULL DEFAULT 0,
		minute_start INTEGER NOT NULL,
		day_count INTEGER NOT NULL DEFAULT 0,
		day_start INTEGER NOT NULL,
		last_throttled_at INTEGER,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_usage_counters_updated ON usage_counters(updated_at);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
