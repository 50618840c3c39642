package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Querier is the subset of pgxpool.Pool the store uses, narrowed so tests
// can substitute a mock pool.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool Querier
}

// NewPostgres connects a pool to the given DSN.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool Querier) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS query_log (
	id          TEXT PRIMARY KEY,
	command     TEXT NOT NULL,
	metric      TEXT NOT NULL DEFAULT '',
	player_id   TEXT NOT NULL DEFAULT '',
	warnings    INTEGER NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_query_log_created_at ON query_log(created_at);
`

// Migrate creates the schema if needed.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// RecordQuery appends one entry.
func (s *PostgresStore) RecordQuery(ctx context.Context, q QueryLog) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO query_log (id, command, metric, player_id, warnings, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		q.ID, q.Command, q.Metric, q.PlayerID, q.Warnings, q.Duration.Milliseconds(), q.CreatedAt)
	return eris.Wrap(err, "postgres: record query")
}

// RecentQueries returns the newest entries, most recent first.
func (s *PostgresStore) RecentQueries(ctx context.Context, limit int) ([]QueryLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, command, metric, player_id, warnings, duration_ms, created_at
		 FROM query_log ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query recent")
	}
	defer rows.Close()

	var out []QueryLog
	for rows.Next() {
		var (
			q  QueryLog
			ms int64
		)
		if err := rows.Scan(&q.ID, &q.Command, &q.Metric, &q.PlayerID, &q.Warnings, &ms, &q.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		q.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, q)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate rows")
}
