// Package store persists a lightweight audit log of queries: which command
// ran, against which metric or player, how long it took, and how many
// integrity warnings the snapshot produced. Sheet contents are never
// persisted; each query still works on its own fetched snapshot.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// QueryLog is one recorded query.
type QueryLog struct {
	ID        string        `json:"id"`
	Command   string        `json:"command"`
	Metric    string        `json:"metric,omitempty"`
	PlayerID  string        `json:"player_id,omitempty"`
	Warnings  int           `json:"warnings"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store is the audit log backend.
type Store interface {
	// Migrate creates the schema if needed.
	Migrate(ctx context.Context) error
	// RecordQuery appends one entry. ID and CreatedAt are filled when empty.
	RecordQuery(ctx context.Context, q QueryLog) error
	// RecentQueries returns the newest entries, most recent first.
	RecentQueries(ctx context.Context, limit int) ([]QueryLog, error)
	Close() error
}

// Open builds and migrates a store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "sqlite":
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
