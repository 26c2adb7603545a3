package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/carpool/internal/storage"
)

// recordSave appends an entry to the save log within tx.
func recordSave(ctx context.Context, tx *sql.Tx, rowCount int) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO snapshot_saves (id, saved_at, row_count) VALUES (?, ?, ?)",
		uuid.New().String(), time.Now().Unix(), rowCount,
	)
	if err != nil {
		return fmt.Errorf("failed to record save: %w", err)
	}
	return nil
}

// ListSaves retrieves the most recent saves, newest first.
func (s *SQLiteStore) ListSaves(ctx context.Context, limit int) ([]storage.SaveRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, saved_at, row_count FROM snapshot_saves
		 ORDER BY saved_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	var saves []storage.SaveRecord
	for rows.Next() {
		var rec storage.SaveRecord
		var savedAt int64
		if err := rows.Scan(&rec.ID, &savedAt, &rec.Rows); err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		rec.SavedAt = time.Unix(savedAt, 0).UTC()
		saves = append(saves, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saves: %w", err)
	}

	return saves, nil
}
