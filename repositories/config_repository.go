package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// Ключи таблицы tournament_config.
const (
	ConfigKeyDailyStartTime    = "daily_start_time"
	ConfigKeyDailyEndTime      = "daily_end_time"
	ConfigKeyGamesPerDayRound1 = "games_per_day_round1"
	ConfigKeyTournamentStatus  = "tournament_status"
	ConfigKeyTournamentName    = "tournament_name"
)

type ConfigRepository interface {
	// GetValues returns the raw JSON values of the requested keys. Missing keys are absent from the map.
	GetValues(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
}

type postgresConfigRepository struct {
	db *sql.DB
}

func NewPostgresConfigRepository(db *sql.DB) ConfigRepository {
	return &postgresConfigRepository{db: db}
}

func (r *postgresConfigRepository) GetValues(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	values := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	query := `SELECT key, value_json FROM tournament_config WHERE key = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("failed to query tournament config: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan tournament config row: %w", err)
		}
		values[key] = json.RawMessage(raw)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament config rows: %w", err)
	}
	return values, nil
}
