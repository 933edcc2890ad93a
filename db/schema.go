package db

import (
	"context"
	"database/sql"
	"fmt"
)

// The streak_tracker table references players, so creation order matters.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS players (
		osu_id                INTEGER PRIMARY KEY,
		name                  TEXT NOT NULL,
		rank_standard         INTEGER NOT NULL DEFAULT 0,
		total_participation   INTEGER NOT NULL DEFAULT 0,
		current_streak        INTEGER NOT NULL DEFAULT 0,
		best_daily_streak     INTEGER NOT NULL DEFAULT 0,
		previous_daily_streak INTEGER NOT NULL DEFAULT 0,
		last_update           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS streak_tracker (
		player_id        INTEGER PRIMARY KEY REFERENCES players(osu_id) ON DELETE CASCADE,
		has_played_today BOOLEAN NOT NULL DEFAULT FALSE,
		full_streaker    BOOLEAN NOT NULL DEFAULT FALSE,
		is_streaking     BOOLEAN NOT NULL DEFAULT FALSE,
		last_update      TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the two tracker tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
