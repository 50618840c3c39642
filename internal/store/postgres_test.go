package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresWithPool(mock), mock
}

func TestPostgresRecordQuery(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO query_log`).
		WithArgs(pgxmock.AnyArg(), "leaderboard", "score", "42", 1, int64(150), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.RecordQuery(context.Background(), QueryLog{
		Command:  "leaderboard",
		Metric:   "score",
		PlayerID: "42",
		Warnings: 1,
		Duration: 150 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecentQueries(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "command", "metric", "player_id", "warnings", "duration_ms", "created_at"}).
		AddRow("q2", "stats", "", "7", 0, int64(80), now.Add(time.Minute)).
		AddRow("q1", "compare", "", "", 2, int64(40), now)

	mock.ExpectQuery(`SELECT id, command, metric, player_id, warnings, duration_ms, created_at`).
		WithArgs(20).
		WillReturnRows(rows)

	got, err := s.RecentQueries(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "q2", got[0].ID)
	assert.Equal(t, 80*time.Millisecond, got[0].Duration)
	assert.Equal(t, 2, got[1].Warnings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS query_log`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
