package repositories

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var matchColumnNames = []string{
	"id", "round_id", "participant_home_id", "participant_away_id", "status", "home_goals", "away_goals",
	"home_pass_accuracy", "away_pass_accuracy", "home_possession", "away_possession", "match_title", "venue", "published",
	"scheduled_at", "started_at", "ended_at", "admin_id", "created_at", "updated_at",
}

func matchRow(id, roundID, home, away uuid.UUID, status string, homeGoals, awayGoals int) []driver.Value {
	now := time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)
	return []driver.Value{
		id.String(), roundID.String(), home.String(), away.String(), status, homeGoals, awayGoals,
		nil, nil, nil, nil, nil, nil, false,
		now, nil, nil, nil, now, now,
	}
}
