// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/carpool/internal/snapshot"
	"github.com/mmynk/carpool/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var (
	_ storage.Store   = (*SQLiteStore)(nil)
	_ storage.History = (*SQLiteStore)(nil)
)

// SQLiteStore implements storage.Store using SQLite.
// Rows are kept as text, exactly as the snapshot codec produced them.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithDB wraps an already opened database. The schema must exist.
func NewWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Name() string {
	return "sqlite"
}

// LoadSnapshot returns all stored rows in their saved order.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context) (snapshot.Table, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, direction, driver, passengers, fare_per_leg, vehicle, notes
		 FROM trip_legs ORDER BY position`,
	)
	if err != nil {
		return snapshot.Table{}, fmt.Errorf("failed to query trip legs: %w", err)
	}
	defer rows.Close()

	table := snapshot.Table{Header: snapshot.Columns}
	for rows.Next() {
		var r snapshot.Row
		if err := rows.Scan(&r.ID, &r.Date, &r.Direction, &r.Driver,
			&r.Passengers, &r.FarePerLeg, &r.Vehicle, &r.Notes); err != nil {
			return snapshot.Table{}, fmt.Errorf("failed to scan trip leg: %w", err)
		}
		table.Records = append(table.Records, r.Values())
	}
	if err := rows.Err(); err != nil {
		return snapshot.Table{}, fmt.Errorf("failed to iterate trip legs: %w", err)
	}

	return table, nil
}

// SaveSnapshot replaces the stored rows inside one transaction and logs the save.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, rows []snapshot.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM trip_legs"); err != nil {
		return fmt.Errorf("failed to clear trip legs: %w", err)
	}

	for i, r := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO trip_legs (position, id, date, direction, driver, passengers, fare_per_leg, vehicle, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, r.ID, r.Date, r.Direction, r.Driver, r.Passengers, r.FarePerLeg, r.Vehicle, r.Notes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trip leg %s: %w", r.ID, err)
		}
	}

	if err := recordSave(ctx, tx, len(rows)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
