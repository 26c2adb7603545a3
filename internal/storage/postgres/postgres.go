// Package postgres provides a PostgreSQL-backed implementation of the storage.Store interface.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mmynk/carpool/internal/snapshot"
	"github.com/mmynk/carpool/internal/storage"
)

var (
	_ storage.Store   = (*PostgresStore)(nil)
	_ storage.History = (*PostgresStore)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS trip_legs (
    position INTEGER PRIMARY KEY,
    id TEXT NOT NULL,
    date TEXT NOT NULL,
    direction TEXT NOT NULL,
    driver TEXT NOT NULL,
    passengers TEXT NOT NULL,
    fare_per_leg TEXT NOT NULL,
    vehicle TEXT NOT NULL,
    notes TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_saves (
    id UUID PRIMARY KEY,
    saved_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    row_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshot_saves_saved_at ON snapshot_saves(saved_at);
`

var legColumns = []string{"position", "id", "date", "direction", "driver", "passengers", "fare_per_leg", "vehicle", "notes"}

// PostgresStore keeps the snapshot in a single table, rewritten on every save.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and ensures the schema exists.
func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Name() string {
	return "postgres"
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) LoadSnapshot(ctx context.Context) (snapshot.Table, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, date, direction, driver, passengers, fare_per_leg, vehicle, notes
		 FROM trip_legs ORDER BY position`)
	if err != nil {
		return snapshot.Table{}, fmt.Errorf("failed to query trip legs: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]string, error) {
		var r snapshot.Row
		err := row.Scan(&r.ID, &r.Date, &r.Direction, &r.Driver, &r.Passengers, &r.FarePerLeg, &r.Vehicle, &r.Notes)
		return r.Values(), err
	})
	if err != nil {
		return snapshot.Table{}, fmt.Errorf("failed to read trip legs: %w", err)
	}

	return snapshot.Table{Header: snapshot.Columns, Records: records}, nil
}

// SaveSnapshot truncates and bulk-loads the table with COPY in one transaction.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, rows []snapshot.Row) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM trip_legs"); err != nil {
		return fmt.Errorf("failed to clear trip legs: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"trip_legs"}, legColumns, pgx.CopyFromRows(copyValues(rows)))
	if err != nil {
		return fmt.Errorf("failed to copy trip legs: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO snapshot_saves (id, row_count) VALUES ($1, $2)",
		uuid.New(), len(rows),
	); err != nil {
		return fmt.Errorf("failed to record save: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// copyValues lays rows out in legColumns order, with the slice index as the
// position so a load returns them in save order.
func copyValues(rows []snapshot.Row) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{int32(i), r.ID, r.Date, r.Direction, r.Driver, r.Passengers, r.FarePerLeg, r.Vehicle, r.Notes}
	}
	return out
}

// ListSaves returns the most recent saves, newest first.
func (s *PostgresStore) ListSaves(ctx context.Context, limit int) ([]storage.SaveRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id::text, saved_at, row_count FROM snapshot_saves ORDER BY saved_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	var out []storage.SaveRecord
	for rows.Next() {
		var rec storage.SaveRecord
		var savedAt time.Time
		var count int32
		if err := rows.Scan(&rec.ID, &savedAt, &count); err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		rec.SavedAt = savedAt.UTC()
		rec.Rows = int(count)
		out = append(out, rec)
	}
	return out, rows.Err()
}
