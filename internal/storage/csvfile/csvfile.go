// Package csvfile stores ledger snapshots in a local CSV file.
package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mmynk/carpool/internal/snapshot"
	"github.com/mmynk/carpool/internal/storage"
)

// Ensure CSVStore implements storage.Store
var _ storage.Store = (*CSVStore)(nil)

// CSVStore implements storage.Store on a single CSV file.
type CSVStore struct {
	path string
}

// New creates a CSVStore for path, creating the parent directory.
// The file itself is created by the first save.
func New(path string) (*CSVStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &CSVStore{path: path}, nil
}

func (s *CSVStore) Name() string {
	return "csv"
}

func (s *CSVStore) Close() error {
	return nil
}

// LoadSnapshot reads the file; a missing file is an empty snapshot.
func (s *CSVStore) LoadSnapshot(ctx context.Context) (snapshot.Table, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return snapshot.Table{Header: snapshot.Columns}, nil
	}
	if err != nil {
		return snapshot.Table{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	table, err := snapshot.ReadCSV(f)
	if err != nil {
		return snapshot.Table{}, fmt.Errorf("failed to read snapshot %s: %w", s.path, err)
	}
	return table, nil
}

// SaveSnapshot writes rows to a temporary file next to the snapshot and
// renames it into place, so readers never see a half-written file.
func (s *CSVStore) SaveSnapshot(ctx context.Context, rows []snapshot.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".trips-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := snapshot.WriteCSV(tmp, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
