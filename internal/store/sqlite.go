package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS query_log (
	id          TEXT PRIMARY KEY,
	command     TEXT NOT NULL,
	metric      TEXT NOT NULL DEFAULT '',
	player_id   TEXT NOT NULL DEFAULT '',
	warnings    INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_query_log_created_at ON query_log(created_at);
`

// Migrate creates the schema if needed.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordQuery appends one entry.
func (s *SQLiteStore) RecordQuery(ctx context.Context, q QueryLog) error {
	fill(&q)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_log (id, command, metric, player_id, warnings, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Command, q.Metric, q.PlayerID, q.Warnings, q.Duration.Milliseconds(), q.CreatedAt)
	return eris.Wrap(err, "sqlite: record query")
}

// RecentQueries returns the newest entries, most recent first.
func (s *SQLiteStore) RecentQueries(ctx context.Context, limit int) ([]QueryLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, metric, player_id, warnings, duration_ms, created_at
		 FROM query_log ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query recent")
	}
	defer rows.Close()

	var out []QueryLog
	for rows.Next() {
		var (
			q  QueryLog
			ms int64
		)
		if err := rows.Scan(&q.ID, &q.Command, &q.Metric, &q.PlayerID, &q.Warnings, &ms, &q.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		q.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, q)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate rows")
}

func fill(q *QueryLog) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
}
