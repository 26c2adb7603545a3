// Package storage provides abstractions for persisting ledger snapshots.
package storage

import (
	"context"
	"time"

	"github.com/mmynk/carpool/internal/snapshot"
)

// Store defines the interface for snapshot persistence.
// A backend only ever sees the full set of raw rows: there is no partial
// sync. This abstraction allows swapping backends (CSV file, SQLite,
// PostgreSQL) without changing the session layer.
type Store interface {
	// LoadSnapshot returns every stored row, in order. The header may use an
	// older column layout; decoding is left to the caller.
	// An empty or missing snapshot is not an error.
	LoadSnapshot(ctx context.Context) (snapshot.Table, error)

	// SaveSnapshot replaces everything stored with rows.
	// A failed save must leave the previous snapshot readable.
	SaveSnapshot(ctx context.Context, rows []snapshot.Row) error

	// Name identifies the backend in logs and errors.
	Name() string

	// Close releases any resources held by the store.
	Close() error
}

// SaveRecord describes one successful SaveSnapshot call.
type SaveRecord struct {
	ID      string
	SavedAt time.Time
	Rows    int
}

// History is implemented by backends that keep a log of saves.
type History interface {
	// ListSaves returns the most recent saves, newest first.
	ListSaves(ctx context.Context, limit int) ([]SaveRecord, error)
}
