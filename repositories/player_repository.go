package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mirokatsu/osu-streak-tracker/models"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerConflict = errors.New("player already exists")
)

// PlayerRepository is the keyed record store for tracked players. All streak
// state mutation goes through UpsertRecord (the reconciliation pass) or
// ConfirmPlayedToday (the scrape pass); both key exclusively on player id.
type PlayerRepository interface {
	GetByID(ctx context.Context, id int) (*models.PlayerRecord, error)
	ListIDs(ctx context.Context) ([]int, error)
	GetAllJoined(ctx context.Context) ([]models.PlayerRecord, error)
	UpsertRecord(ctx context.Context, rec *models.PlayerRecord) error
	ConfirmPlayedToday(ctx context.Context, id int, now time.Time) error
	Delete(ctx context.Context, id int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const joinedSelect = `
	SELECT
		pl.osu_id,
		pl.name,
		pl.rank_standard,
		pl.total_participation,
		pl.current_streak,
		pl.best_daily_streak,
		pl.previous_daily_streak,
		COALESCE(st.has_played_today, FALSE),
		COALESCE(st.full_streaker, FALSE),
		COALESCE(st.is_streaking, FALSE),
		pl.last_update
	FROM players pl
	LEFT JOIN streak_tracker st ON st.player_id = pl.osu_id`

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.PlayerRecord, error) {
	row := r.db.QueryRowContext(ctx, joinedSelect+` WHERE pl.osu_id = $1`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player %d: %w", id, err)
	}
	return rec, nil
}

func (r *postgresPlayerRepository) ListIDs(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT osu_id FROM players ORDER BY osu_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresPlayerRepository) GetAllJoined(ctx context.Context) ([]models.PlayerRecord, error) {
	rows, err := r.db.QueryContext(ctx, joinedSelect)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.PlayerRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// UpsertRecord writes both the stats row and the streak-tracking row in one
// transaction, inserting on first contact and updating afterwards.
func (r *postgresPlayerRepository) UpsertRecord(ctx context.Context, rec *models.PlayerRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO players
			(osu_id, name, rank_standard, total_participation, current_streak,
			 best_daily_streak, previous_daily_streak, last_update)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (osu_id) DO UPDATE SET
			name = EXCLUDED.name,
			rank_standard = EXCLUDED.rank_standard,
			total_participation = EXCLUDED.total_participation,
			current_streak = EXCLUDED.current_streak,
			best_daily_streak = EXCLUDED.best_daily_streak,
			previous_daily_streak = EXCLUDED.previous_daily_streak,
			last_update = EXCLUDED.last_update`,
		rec.ID,
		rec.Name,
		rec.RankStandard,
		rec.TotalParticipation,
		rec.CurrentStreak,
		rec.BestDailyStreak,
		rec.PreviousDailyStreak,
		rec.LastUpdate,
	)
	if err != nil {
		return mapPlayerError(err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO streak_tracker
			(player_id, has_played_today, full_streaker, is_streaking, last_update)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (player_id) DO UPDATE SET
			has_played_today = EXCLUDED.has_played_today,
			full_streaker = EXCLUDED.full_streaker,
			is_streaking = EXCLUDED.is_streaking,
			last_update = EXCLUDED.last_update`,
		rec.ID,
		rec.HasPlayedToday,
		rec.FullStreaker,
		rec.IsStreaking,
		rec.LastUpdate,
	)
	if err != nil {
		return mapPlayerError(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert for player %d: %w", rec.ID, err)
	}
	return nil
}

// ConfirmPlayedToday asserts leaderboard presence for a player the scrape
// pass saw. Only the played-today flag and timestamp move; the tier flags
// stay as the last reconciliation computed them, since the scrape carries no
// streak counts. Returns ErrPlayerNotFound for untracked ids.
func (r *postgresPlayerRepository) ConfirmPlayedToday(ctx context.Context, id int, now time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE streak_tracker
		SET has_played_today = TRUE, last_update = $2
		WHERE player_id = $1`,
		id, now,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	// streak_tracker rows go with the player via ON DELETE CASCADE.
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE osu_id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.PlayerRecord, error) {
	var rec models.PlayerRecord
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.RankStandard,
		&rec.TotalParticipation,
		&rec.CurrentStreak,
		&rec.BestDailyStreak,
		&rec.PreviousDailyStreak,
		&rec.HasPlayedToday,
		&rec.FullStreaker,
		&rec.IsStreaking,
		&rec.LastUpdate,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func mapPlayerError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrPlayerConflict
		case "23503": // foreign_key_violation
			return ErrPlayerNotFound
		}
	}
	return err
}
